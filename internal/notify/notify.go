// Package notify holds the short user-visible messages shown after an
// action succeeds or fails.
package notify

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

type Notification struct {
	Variant     Variant `json:"variant"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
}

func Success(title, description string) Notification {
	return Notification{Variant: VariantDefault, Title: title, Description: description}
}

func Failure(title, description string) Notification {
	return Notification{Variant: VariantDestructive, Title: title, Description: description}
}

func (n Notification) Destructive() bool {
	return n.Variant == VariantDestructive
}
