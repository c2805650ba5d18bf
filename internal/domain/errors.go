package domain

import "errors"

var (
	// ErrSessionNotFound is returned when an onboarding session has not been started.
	ErrSessionNotFound = errors.New("onboarding session not found")
	// ErrUnknownPersona is returned for persona tokens other than creator or entrepreneur.
	ErrUnknownPersona = errors.New("unknown persona")
	// ErrCatalogNotFound indicates the question catalog could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrInvalidCatalog marks catalog data that fails startup validation.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrInvalidTransition is returned when an operation is invoked outside its valid stage.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrCannotProceed is returned by advance when the active question is unanswered.
	ErrCannotProceed = errors.New("current question is not answered")
	// ErrUnknownQuestion indicates a question id outside the active catalog.
	ErrUnknownQuestion = errors.New("question not found")
	// ErrUnknownOption indicates an option that the question does not list.
	ErrUnknownOption = errors.New("option not found")
	// ErrKindMismatch is returned when an operation does not fit the question kind.
	ErrKindMismatch = errors.New("operation does not match question kind")
	// ErrOtherNotSelected is returned when custom text is set without an Other selection.
	ErrOtherNotSelected = errors.New("other option not selected")
)
