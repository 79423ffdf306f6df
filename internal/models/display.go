package models

type ElementKind string

const (
	ElementParagraph ElementKind = "paragraph"
	ElementItem      ElementKind = "item"
	ElementImage     ElementKind = "image"
)

type Tone string

const (
	TonePlain   Tone = ""
	ToneWarning Tone = "warning"
	ToneError   Tone = "error"
	ToneSuccess Tone = "success"
	ToneNotice  Tone = "notice"
)

type Element struct {
	Kind ElementKind `json:"kind"`
	Tone Tone        `json:"tone,omitempty"`
	Text string      `json:"text,omitempty"`
	Src  string      `json:"src,omitempty"`
	Alt  string      `json:"alt,omitempty"`
}

// Display is the content of the panel's result area.
type Display struct {
	Visible  bool      `json:"visible"`
	Elements []Element `json:"elements"`
}

func (d Display) Empty() bool {
	return len(d.Elements) == 0
}

func (d Display) Texts() []string {
	texts := make([]string, 0, len(d.Elements))
	for _, el := range d.Elements {
		if el.Text != "" {
			texts = append(texts, el.Text)
		}
	}
	return texts
}
