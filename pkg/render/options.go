package render

// RenderOptions describe per-request data renderers use to customise their
// output without touching the definition.
type RenderOptions struct {
	// FormName is the generated name of the bound controller (e.g. "form3").
	// Renderers use it for the form element name so submissions can be traced
	// back to their controller.
	FormName string
	// Values pre-populates controls keyed by field id. When empty, renderers
	// fall back to each field's InitialValue.
	Values map[string]any
	// Errors surfaces server-side validation feedback keyed by field id.
	// Keys that do not match a field are shown as form-level errors.
	Errors map[string][]string
	// HiddenFields are emitted as hidden inputs alongside the fields.
	HiddenFields map[string]string
	// Locale selects the language labels are translated into.
	Locale string
	// Translator resolves labelKey-style hints. Nil disables translation.
	Translator Translator
	// OnMissing decides what a missing translation renders as.
	OnMissing MissingTranslationHandler
}
