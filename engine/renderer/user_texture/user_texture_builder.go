package user_texture

import "github.com/charmbracelet/log"

// UserTextureTableBuilderOption is a functional option used to configure a UserTextureTable during construction.
type UserTextureTableBuilderOption func(*userTextureTable)

// WithLabel sets the label prefix of user texture resources. The id is appended to it.
//
// Parameters:
//   - label: the label prefix, "egui_user_texture" by default
//
// Returns:
//   - UserTextureTableBuilderOption: a function that sets the label prefix
func WithLabel(label string) UserTextureTableBuilderOption {
	return func(t *userTextureTable) {
		t.label = label
	}
}

// WithLogger sets the logger frees are reported on.
func WithLogger(l *log.Logger) UserTextureTableBuilderOption {
	return func(t *userTextureTable) {
		if l != nil {
			t.logger = l
		}
	}
}
