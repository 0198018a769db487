package brand

// Brand parameterizes the shared storefront: accent color for the
// dashboard payload, route prefix used by the web client, and the path
// the payment gateway redirects back to after checkout.
type Brand struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Accent       string `json:"accent"`
	RoutePrefix  string `json:"route_prefix"`
	CallbackPath string `json:"callback_path"`
	DonationPath string `json:"donation_path"`
}

const DefaultSlug = "default"

var registry = map[string]Brand{
	"gospelline": {
		Slug:         "gospelline",
		Name:         "GospelLine",
		Accent:       "#7c3aed",
		RoutePrefix:  "/gospelline",
		CallbackPath: "/gospelline/mylibrary",
		DonationPath: "/gospelline/dashboard",
	},
	"jsity": {
		Slug:         "jsity",
		Name:         "Jsity",
		Accent:       "#0ea5e9",
		RoutePrefix:  "/jsity",
		CallbackPath: "/jsity/mylibrary",
		DonationPath: "/jsity/dashboard",
	},
	DefaultSlug: {
		Slug:         DefaultSlug,
		Name:         "Storefront",
		Accent:       "#f97316",
		RoutePrefix:  "",
		CallbackPath: "/mylibrary",
		DonationPath: "/dashboard",
	},
}

// Resolve falls back to the default brand for unknown slugs.
func Resolve(slug string) Brand {
	if b, ok := registry[slug]; ok {
		return b
	}
	return registry[DefaultSlug]
}

func Known(slug string) bool {
	_, ok := registry[slug]
	return ok
}

func All() []Brand {
	out := make([]Brand, 0, len(registry))
	for _, slug := range []string{"gospelline", "jsity", DefaultSlug} {
		out = append(out, registry[slug])
	}
	return out
}
