package render

import "strings"

// RewriteAssetURLs maps legacy upload paths to the canonical ones and makes
// upload references in src and href attributes absolute against staticDomain.
// It is applied to the final bytes of every page and is idempotent.
func RewriteAssetURLs(staticDomain, page string) string {
	page = strings.ReplaceAll(page, "/static/uploads/", "/uploads/")

	domain := strings.TrimSuffix(staticDomain, "/")
	if domain == "" {
		return page
	}
	r := strings.NewReplacer(
		`src="/uploads/`, `src="`+domain+`/uploads/`,
		`href="/uploads/`, `href="`+domain+`/uploads/`,
		`src='/uploads/`, `src='`+domain+`/uploads/`,
		`href='/uploads/`, `href='`+domain+`/uploads/`,
	)
	return r.Replace(page)
}
