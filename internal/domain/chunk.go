package domain

// Chunk is an immutable unit of indexed statute text. Chunks are owned by
// the record store; the ranking engine references them by ID and carries
// their metadata through to the fused response.
type Chunk struct {
	id      string
	actName string
	section string
	domains []string
	text    string
}

// NewChunk creates a chunk record.
func NewChunk(id, actName, section string, domains []string, text string) Chunk {
	return Chunk{
		id:      id,
		actName: actName,
		section: section,
		domains: domains,
		text:    text,
	}
}

// ID returns the stable chunk identifier.
func (c *Chunk) ID() string { return c.id }

// ActName returns the statute the chunk belongs to.
func (c *Chunk) ActName() string { return c.actName }

// Section returns the section identifier within the act.
func (c *Chunk) Section() string { return c.section }

// Domains returns the legal domain tags.
func (c *Chunk) Domains() []string { return c.domains }

// Text returns the raw chunk text.
func (c *Chunk) Text() string { return c.text }
