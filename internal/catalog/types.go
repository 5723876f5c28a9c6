package catalog

// Option is one entry of a fixed selection list (university, stream, year).
type Option struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Subject is a selectable subject. Heading is the display name used to find
// the subject's section in a topic document.
type Subject struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Heading string `yaml:"heading" json:"heading"`
}

// Mode selects which topic document a prediction reads.
type Mode struct {
	ID       string `yaml:"id" json:"id"`
	Title    string `yaml:"title" json:"title"`
	Document string `yaml:"document" json:"document"`
}

// Defaults are the choices a new selection starts with. Mode may be empty,
// in which case prediction stays locked until a mode is picked.
type Defaults struct {
	University string `yaml:"university" json:"university"`
	Stream     string `yaml:"stream" json:"stream"`
	Year       string `yaml:"year" json:"year"`
	Subject    string `yaml:"subject" json:"subject"`
	Mode       string `yaml:"mode" json:"mode,omitempty"`
}

// Catalog is the full set of options offered to a student.
type Catalog struct {
	Universities []Option  `yaml:"universities" json:"universities"`
	Streams      []Option  `yaml:"streams" json:"streams"`
	Years        []Option  `yaml:"years" json:"years"`
	Subjects     []Subject `yaml:"subjects" json:"subjects"`
	Modes        []Mode    `yaml:"modes" json:"modes"`
	Defaults     Defaults  `yaml:"defaults" json:"defaults"`
}

// University looks up a university by ID.
func (c *Catalog) University(id string) (Option, bool) {
	return findOption(c.Universities, id)
}

// Stream looks up a stream by ID.
func (c *Catalog) Stream(id string) (Option, bool) {
	return findOption(c.Streams, id)
}

// Year looks up a year by ID.
func (c *Catalog) Year(id string) (Option, bool) {
	return findOption(c.Years, id)
}

// Subject looks up a subject by ID.
func (c *Catalog) Subject(id string) (Subject, bool) {
	for _, s := range c.Subjects {
		if s.ID == id {
			return s, true
		}
	}
	return Subject{}, false
}

// Mode looks up a mode by ID.
func (c *Catalog) Mode(id string) (Mode, bool) {
	for _, m := range c.Modes {
		if m.ID == id {
			return m, true
		}
	}
	return Mode{}, false
}

// Documents returns the distinct document names referenced by modes.
func (c *Catalog) Documents() []string {
	seen := make(map[string]bool, len(c.Modes))
	var names []string
	for _, m := range c.Modes {
		if !seen[m.Document] {
			seen[m.Document] = true
			names = append(names, m.Document)
		}
	}
	return names
}

func findOption(opts []Option, id string) (Option, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}
