// Package webscan analyzes business websites for capability signals. A static
// fetch is tried first; pages that look JavaScript-rendered are promoted to a
// headless browser pass before the signal tables run.
package webscan

// featureSignal describes how one website capability is detected. Keeping
// these as data tables means new signals are additions, not new branches.
type featureSignal struct {
	Name      string
	Keywords  []string
	Scripts   []string
	Selectors []string
}

// FeatureOnlinePresence is the primary feature a business with no website at
// all is missing by definition.
const FeatureOnlinePresence = "online_presence"

var featureSignals = []featureSignal{
	{
		Name:     "online_booking",
		Keywords: []string{"book now", "book online", "schedule an appointment", "reserve", "make a booking"},
		Scripts:  []string{"calendly", "acuityscheduling", "squareup.com/appointments", "booksy"},
	},
	{
		Name:      "contact_form",
		Keywords:  []string{"contact us", "get in touch", "send us a message"},
		Selectors: []string{"form input[type='email']", "form textarea"},
	},
	{
		Name:    "analytics",
		Scripts: []string{"googletagmanager", "google-analytics", "gtag", "plausible.io", "matomo"},
	},
	{
		Name:      "mobile_viewport",
		Selectors: []string{"meta[name='viewport']"},
	},
	{
		Name:     "social_links",
		Keywords: []string{"facebook.com/", "instagram.com/", "linkedin.com/"},
	},
	{
		Name:     "live_chat",
		Scripts:  []string{"intercom", "crisp.chat", "tawk.to", "livechat"},
		Keywords: []string{"chat with us"},
	},
	{
		Name:      "seo_meta",
		Selectors: []string{"meta[name='description']", "meta[property='og:title']"},
	},
}

// FeatureNames lists every feature the scanner can report, online presence
// first.
func FeatureNames() []string {
	names := make([]string, 0, len(featureSignals)+1)
	names = append(names, FeatureOnlinePresence)
	for _, sig := range featureSignals {
		names = append(names, sig.Name)
	}
	return names
}
