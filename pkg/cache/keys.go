package cache

// Keyer derives cache keys.
type Keyer interface {
	// FrameKey identifies the frame reached after simulating a source.
	FrameKey(sourceHash string, opts FrameKeyOpts) string

	// RenderKey identifies a rendered projection of a frame.
	RenderKey(frameHash string, opts RenderKeyOpts) string
}

// FrameKeyOpts are the inputs besides the source text that determine a
// simulated frame.
type FrameKeyOpts struct {
	Ticks      int    `json:"ticks"`
	Seed       int64  `json:"seed"`
	ParamsHash string `json:"params_hash"`
	Lang       string `json:"lang"`
}

// RenderKeyOpts are the inputs that determine a projection.
type RenderKeyOpts struct {
	Format     string  `json:"format"`
	Flowchart  string  `json:"flowchart"`
	Scale      float64 `json:"scale"`
	Detailed   bool    `json:"detailed"`
	ShowHidden bool    `json:"show_hidden"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// FrameKey returns "frame:<sha256>".
func (DefaultKeyer) FrameKey(sourceHash string, opts FrameKeyOpts) string {
	return hashKey("frame", sourceHash, opts)
}

// RenderKey returns "render:<sha256>".
func (DefaultKeyer) RenderKey(frameHash string, opts RenderKeyOpts) string {
	return hashKey("render", frameHash, opts)
}
