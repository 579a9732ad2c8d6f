// Package source turns documents into diagram records.
//
// A document is split into [Block] values, one per diagram, by [Extract]:
// markdown documents contribute every fenced code block whose info string
// names the diagram language, and plain YAML files are a single block.
// Each block is then handed to a [Parser], which produces the
// [flowchart.Diagram] records the graph builder consumes.
//
// Parsing the flowchart language itself is left to external collaborators
// that implement [Parser]. The bundled [RecordParser] decodes blocks whose
// body is already structured as YAML records:
//
//	name: checkout
//	vertices:
//	  - {id: cart, text: "🛒 cart"}
//	  - {id: pay, text: "💳 pay", shape: stadium}
//	edges:
//	  - {start: cart, end: pay, length: 2, type: arrow_point}
//	subgraphs:
//	  - {id: shop, title: Shop, members: [cart, pay]}
package source
