// Package originallyappeared marks records (posts and pages) as content that was
// first published on another site.
//
// It stores four metadata fields per record through a pluggable MetaRepository,
// renders an edit form for them, guards and applies form submissions, and
// produces the attribution notice and the SEO head tags (canonical link and
// robots noindex) for single-record page views.
//
// The package is host-agnostic. Everything it needs from the surrounding CMS
// (extension point registration, integrity tokens, permission checks, default
// canonical output) is expressed as an interface in interfaces.go. A reference
// host lives in the host and api subpackages.
//
// # Placeholders
//
// The attribution message is a template in which [NAME], [SITE_URL], [NO_INDEX]
// and [CUSTOM_MESSAGE] are replaced with the stored values. Values are inserted
// without escaping unless the plugin is built WithEscapedPlaceholders.
package originallyappeared
