package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Usage Errors (H001-H049)
	// ============================================

	"H001": {
		Category: CategoryUsage,
		Message:  "Store already wrapped",
		Detail:   "The value passed to Wrap is already an observable store, or its backing map is owned by a live store. A backing container may be wrapped at most once.",
		DocURL:   "https://hookbind.dev/docs/errors/H001",
	},
	"H002": {
		Category: CategoryUsage,
		Message:  "Unsupported store source",
		Detail:   "Wrap accepts a map keyed by the store's key type. Other values cannot be observed.",
		DocURL:   "https://hookbind.dev/docs/errors/H002",
	},
	"H003": {
		Category: CategoryUsage,
		Message:  "Values can only be bound from stores",
		Detail:   "BindFromKeys was called with a handle that is not a store created by Wrap.",
		DocURL:   "https://hookbind.dev/docs/errors/H003",
	},
	"H004": {
		Category: CategoryUsage,
		Message:  "No keys given",
		Detail:   "A binding must observe at least one key.",
		DocURL:   "https://hookbind.dev/docs/errors/H004",
	},
	"H005": {
		Category: CategoryUsage,
		Message:  "Key and combinator arity mismatch",
		Detail:   "Several keys need a combinator taking one argument per key; a single key may be bound with or without a combinator.",
		DocURL:   "https://hookbind.dev/docs/errors/H005",
	},
	"H006": {
		Category: CategoryUsage,
		Message:  "Key has the wrong type",
		Detail:   "Every key passed to BindFromKeys must have the store's key type.",
		DocURL:   "https://hookbind.dev/docs/errors/H006",
	},
	"H007": {
		Category: CategoryUsage,
		Message:  "Nil binding target",
		Detail:   "BindToValue needs a destination to assign into.",
		DocURL:   "https://hookbind.dev/docs/errors/H007",
	},
	"H008": {
		Category: CategoryUsage,
		Message:  "Nil callback",
		Detail:   "BindToCallback needs a function to call.",
		DocURL:   "https://hookbind.dev/docs/errors/H008",
	},
	"H009": {
		Category: CategoryUsage,
		Message:  "Write rejected",
		Detail:   "The store's validator refused the write. The value is unchanged and no binding was notified.",
		DocURL:   "https://hookbind.dev/docs/errors/H009",
	},
	"H010": {
		Category: CategoryUsage,
		Message:  "Invalid field target",
		Detail:   "FieldTarget needs a non-nil pointer to a struct.",
		DocURL:   "https://hookbind.dev/docs/errors/H010",
	},

	// ============================================
	// Callback Errors (H050-H069)
	// ============================================

	"H050": {
		Category: CategoryCallback,
		Message:  "Binding callback failed",
		Detail:   "A callback binding panicked while receiving a value. The failure was logged and suppressed; other subscribers still ran.",
		DocURL:   "https://hookbind.dev/docs/errors/H050",
	},
	"H051": {
		Category: CategoryCallback,
		Message:  "Binding assignment failed",
		Detail:   "A value binding could not assign into its destination. The failure was logged and suppressed; other subscribers still ran.",
		DocURL:   "https://hookbind.dev/docs/errors/H051",
	},
	"H052": {
		Category: CategoryCallback,
		Message:  "Combinator failed",
		Detail:   "The combinator of a binding panicked or returned an error while computing its value.",
		DocURL:   "https://hookbind.dev/docs/errors/H052",
	},

	// ============================================
	// Lifecycle Errors (H070-H089)
	// ============================================

	"H070": {
		Category: CategoryLifecycle,
		Message:  "Unmanaged callback binding",
		Detail:   "A callback binding was never attached to an owner, so it will never be destroyed automatically. Call BindDestroy or Destroy.",
		DocURL:   "https://hookbind.dev/docs/errors/H070",
	},

	// ============================================
	// Config Errors (H090-H094)
	// ============================================

	"H090": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "hookbind.yaml could not be parsed.",
		DocURL:   "https://hookbind.dev/docs/errors/H090",
	},
	"H091": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or not recognised.",
		DocURL:   "https://hookbind.dev/docs/errors/H091",
	},

	// ============================================
	// Inspect Errors (H095-H099)
	// ============================================

	"H095": {
		Category: CategoryInspect,
		Message:  "Unknown store",
		Detail:   "No store with this name is registered with the inspector.",
		DocURL:   "https://hookbind.dev/docs/errors/H095",
	},
	"H096": {
		Category: CategoryInspect,
		Message:  "Watch upgrade failed",
		Detail:   "The websocket handshake of a watch request was refused or failed.",
		DocURL:   "https://hookbind.dev/docs/errors/H096",
	},

	// ============================================
	// Bench Errors (H100-H109)
	// ============================================

	"H100": {
		Category: CategoryBench,
		Message:  "Invalid bench size",
		Detail:   "The number of stores, bindings per store and writes must all be positive.",
		DocURL:   "https://hookbind.dev/docs/errors/H100",
	},
	"H101": {
		Category: CategoryBench,
		Message:  "Bindings outlived their owners",
		Detail:   "After every owner was disposed some bindings were still subscribed to a store key.",
		DocURL:   "https://hookbind.dev/docs/errors/H101",
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
