package explorer

import (
	"fmt"
	"strings"

	"github.com/sourcemeta-go/registryindex/config"
	"github.com/sourcemeta-go/registryindex/internal/htmlenc"
	"github.com/sourcemeta-go/registryindex/metapack"
)

// projectVersion is stamped into every page's footer, mirroring the
// original's compiled-in PROJECT_VERSION.
const projectVersion = "0.1.0"

// HTMLContext carries the configuration every page generator renders
// against.
type HTMLContext struct {
	Configuration *config.Configuration
}

// BuildIndexHTML renders the server's root page from the root directory
// navigation document (dependencies[0]). Grounded on GENERATE_EXPLORER_INDEX.
func BuildIndexHTML(destination string, dependencies []string, _ func(string), ctxAny any) error {
	hctx := ctxAny.(*HTMLContext)
	var nav DirectoryNav
	if _, err := metapack.ReadJSON(dependencies[0], &nav); err != nil {
		return err
	}

	b := &htmlenc.Builder{}
	htmlStart(b, nav.Canonical, hctx.Configuration.Head, hctx.Configuration,
		hctx.Configuration.Title+" Schemas", hctx.Configuration.Description, true)

	if hctx.Configuration.Hero != "" {
		b.Open("div", htmlenc.Attr("class", "container-fluid px-4")).
			Open("div", htmlenc.Attr("class", "bg-light border border-light-subtle mt-4 px-3 py-3"))
		b.Raw(hctx.Configuration.Hero)
		b.Close("div").Close("div")
	}

	fileManager(b, nav)
	htmlEnd(b)
	return writeHTML(destination, b.String())
}

// BuildDirectoryHTML renders one directory's page from its navigation
// document. Grounded on GENERATE_EXPLORER_DIRECTORY_PAGE.
func BuildDirectoryHTML(destination string, dependencies []string, _ func(string), ctxAny any) error {
	hctx := ctxAny.(*HTMLContext)
	var nav DirectoryNav
	if _, err := metapack.ReadJSON(dependencies[0], &nav); err != nil {
		return err
	}

	title := nav.Title
	if title == "" {
		title = nav.URL
	}
	description := nav.Description
	if description == "" {
		description = "Schemas located at " + nav.URL
	}

	b := &htmlenc.Builder{}
	htmlStart(b, nav.Canonical, hctx.Configuration.Head, hctx.Configuration, title, description, true)
	fileManager(b, nav)
	htmlEnd(b)
	return writeHTML(destination, b.String())
}

// BuildSchemaHTML renders one schema's page from its navigation document
// (dependencies[0]), its raw materialised source (dependencies[1], shown
// truncated to 20 lines) and its dependency ledger (dependencies[2]).
// Grounded on GENERATE_EXPLORER_SCHEMA_PAGE.
func BuildSchemaHTML(destination string, dependencies []string, _ func(string), ctxAny any) error {
	hctx := ctxAny.(*HTMLContext)
	var nav SchemaNav
	if _, err := metapack.ReadJSON(dependencies[0], &nav); err != nil {
		return err
	}
	materialised, err := metapack.Read(dependencies[1])
	if err != nil {
		return err
	}
	var edges []struct {
		From string `json:"from"`
		To   string `json:"to"`
		At   string `json:"at"`
	}
	if _, err := metapack.ReadJSON(dependencies[2], &edges); err != nil {
		return err
	}

	title := nav.Title
	if title == "" {
		title = nav.URL
	}
	description := nav.Description
	if description == "" {
		description = "Schemas located at " + nav.URL
	}

	b := &htmlenc.Builder{}
	htmlStart(b, nav.Canonical, hctx.Configuration.Head, hctx.Configuration, title, description, true)
	breadcrumbHTML(b, nav.Breadcrumb)

	b.Open("div", htmlenc.Attr("class", "container-fluid p-4"))
	b.Open("div")
	b.Open("div")
	if nav.Title != "" {
		b.Open("h2", htmlenc.Attr("class", "fw-bold h4")).Text(nav.Title).Close("h2")
	}
	if nav.Description != "" {
		b.Open("p", htmlenc.Attr("class", "text-secondary")).Text(nav.Description).Close("p")
	}
	b.Open("a", htmlenc.Attr("href", nav.URL), htmlenc.Attr("class", "btn btn-primary me-2"), htmlenc.Attr("role", "button")).
		Text("Get JSON Schema").Close("a")
	b.Open("a", htmlenc.Attr("href", nav.URL+"?bundle=1"), htmlenc.Attr("class", "btn btn-secondary"), htmlenc.Attr("role", "button")).
		Text("Bundle").Close("a")
	b.Close("div")

	b.Open("table", htmlenc.Attr("class", "table table-bordered my-4"))
	tableRow(b, "Identifier", func() {
		b.Open("code").Open("a", htmlenc.Attr("href", nav.Identifier)).Text(nav.Identifier).Close("a").Close("code")
	})
	tableRow(b, "Base Dialect", func() { dialectBadge(b, nav.BaseDialect) })
	tableRow(b, "Dialect", func() { b.Open("code").Text(nav.Dialect).Close("code") })
	tableRow(b, "Size", func() {
		b.Text(fmt.Sprintf("%.2f KB", float64(nav.Bytes)/1024))
	})
	b.Close("table")
	b.Close("div")

	lines := strings.SplitN(string(materialised.Payload), "\n", 21)
	truncated := len(lines) > 20
	if truncated {
		lines = lines[:20]
	}
	b.Open("pre", htmlenc.Attr("class", "bg-light p-3 border")).Open("code")
	b.Text(strings.Join(lines, "\n"))
	if truncated {
		b.Text("\n...\n")
	}
	b.Close("code").Close("pre")
	if truncated {
		b.Open("a", htmlenc.Attr("href", nav.URL)).Text("See the full schema").Close("a")
	}

	b.Open("h3", htmlenc.Attr("class", "fw-bold h5 mt-4")).Text("Dependencies").Close("h3")
	var direct, indirect int
	for _, edge := range edges {
		if edge.From == nav.Identifier {
			direct++
		} else {
			indirect++
		}
	}
	b.Open("p").Text(fmt.Sprintf("This schema has %d direct %s and %d indirect %s.",
		direct, plural(direct, "dependency", "dependencies"),
		indirect, plural(indirect, "dependency", "dependencies"))).Close("p")

	if len(edges) > 0 {
		b.Open("table", htmlenc.Attr("class", "table"))
		b.Open("thead").Open("tr")
		b.Open("th", htmlenc.Attr("scope", "col")).Text("Origin").Close("th")
		b.Open("th", htmlenc.Attr("scope", "col")).Text("Dependency").Close("th")
		b.Close("tr").Close("thead")
		b.Open("tbody")
		serverURL := hctx.Configuration.URL
		for _, edge := range edges {
			b.Open("tr")
			if edge.From == nav.Identifier {
				b.Open("td").Open("code").Text(edge.At).Close("code").Close("td")
			} else {
				b.Open("td").Open("span", htmlenc.Attr("class", "badge text-bg-dark")).Text("Indirect").Close("span").Close("td")
			}
			if strings.HasPrefix(edge.To, serverURL) {
				relative := strings.TrimSuffix(strings.TrimPrefix(edge.To, serverURL), ".json")
				b.Open("td").Open("code").Open("a", htmlenc.Attr("href", relative)).Text(relative).Close("a").Close("code").Close("td")
			} else {
				b.Open("td").Open("code").Text(edge.To).Close("code").Close("td")
			}
			b.Close("tr")
		}
		b.Close("tbody").Close("table")
	}
	b.Close("div")

	htmlEnd(b)
	return writeHTML(destination, b.String())
}

// BuildNotFoundHTML renders the registry's 404 page. Grounded on
// GENERATE_EXPLORER_404.
func BuildNotFoundHTML(destination string, _ []string, _ func(string), ctxAny any) error {
	hctx := ctxAny.(*HTMLContext)
	b := &htmlenc.Builder{}
	htmlStart(b, hctx.Configuration.URL, hctx.Configuration.Head, hctx.Configuration,
		"Not Found", "What you are looking for is not here", false)
	b.Open("div", htmlenc.Attr("class", "container-fluid p-4")).
		Open("h2", htmlenc.Attr("class", "fw-bold")).Text("Oops! What you are looking for is not here").Close("h2").
		Open("p", htmlenc.Attr("class", "lead")).Text("Are you sure the link you got is correct?").Close("p").
		Open("a", htmlenc.Attr("href", "/")).Text("Get back to the home page").Close("a").
		Close("div")
	htmlEnd(b)
	return writeHTML(destination, b.String())
}

func writeHTML(destination, content string) error {
	_, err := metapack.Write(destination, []byte(content), metapack.WriteOptions{
		MIME: "text/html", Encoding: metapack.EncodingGzip,
	})
	return err
}

func plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

func htmlStart(b *htmlenc.Builder, canonical, head string, cfg *config.Configuration, title, description string, hasPath bool) {
	b.Doctype()
	b.Open("html", htmlenc.Attr("class", "h-100"), htmlenc.Attr("lang", "en"))
	b.Open("head")
	b.Open("meta", htmlenc.Attr("charset", "utf-8"))
	b.Open("meta", htmlenc.Attr("name", "referrer"), htmlenc.Attr("content", "no-referrer"))
	b.Open("meta", htmlenc.Attr("name", "viewport"), htmlenc.Attr("content", "width=device-width, initial-scale=1.0"))
	b.Open("title").Text(title).Close("title")
	b.Open("meta", htmlenc.Attr("name", "description"), htmlenc.Attr("content", description))
	if hasPath {
		b.Open("link", htmlenc.Attr("rel", "canonical"), htmlenc.Attr("href", canonical))
	}
	b.Open("link", htmlenc.Attr("rel", "stylesheet"), htmlenc.Attr("href", "/static/style.min.css"))
	b.Open("link", htmlenc.Attr("rel", "icon"), htmlenc.Attr("href", "/static/favicon.ico"), htmlenc.Attr("sizes", "any"))
	b.Raw(head)
	b.Close("head")
	b.Open("body", htmlenc.Attr("class", "h-100 d-flex flex-column"))
	navigationBar(b, cfg)
}

func htmlEnd(b *htmlenc.Builder) {
	b.Open("script", htmlenc.Attr("src", "/static/main.min.js"), htmlenc.BareAttr("async"), htmlenc.BareAttr("defer")).Close("script")
	b.Open("div", htmlenc.Attr("class", "container-fluid px-4 mb-2"))
	footer(b)
	b.Close("div")
	b.Close("body")
	b.Close("html")
}

func navigationBar(b *htmlenc.Builder, cfg *config.Configuration) {
	b.Open("nav", htmlenc.Attr("class", "navbar navbar-expand border-bottom bg-body"))
	b.Open("div", htmlenc.Attr("class", "container-fluid px-4 py-1 align-items-center flex-column flex-md-row"))
	b.Open("a", htmlenc.Attr("class", "navbar-brand me-0 me-md-3"), htmlenc.Attr("href", cfg.URL))
	b.Open("span", htmlenc.Attr("class", "fw-bold me-1")).Text(cfg.Title).Close("span")
	b.Open("span", htmlenc.Attr("class", "fw-lighter")).Text(" Schemas").Close("span")
	b.Close("a")
	if cfg.Action != nil {
		b.Open("a", htmlenc.Attr("class", "ms-md-3 btn btn-dark"), htmlenc.Attr("role", "button"), htmlenc.Attr("href", cfg.Action.URL))
		if cfg.Action.Icon != "" {
			b.Open("i", htmlenc.Attr("class", "me-2 bi bi-"+cfg.Action.Icon)).Close("i")
		}
		b.Text(cfg.Action.Title)
		b.Close("a")
	}
	b.Close("div")
	b.Close("nav")
}

func footer(b *htmlenc.Builder) {
	b.Open("footer", htmlenc.Attr("class", "border-top text-secondary py-3 d-flex align-items-center justify-content-between flex-column flex-md-row"))
	b.Open("small", htmlenc.Attr("class", "mb-2 mb-md-0"))
	b.Open("a", htmlenc.Attr("href", "https://github.com/sourcemeta/registry"), htmlenc.Attr("class", "text-secondary"), htmlenc.Attr("target", "_blank")).
		Text("Registry").Close("a")
	b.Text(" v" + projectVersion)
	b.Close("small")
	b.Close("footer")
}

func breadcrumbHTML(b *htmlenc.Builder, crumbs []Breadcrumb) {
	if len(crumbs) == 0 {
		return
	}
	b.Open("nav", htmlenc.Attr("class", "container-fluid px-4 py-2 bg-light border-bottom font-monospace"), htmlenc.Attr("aria-label", "breadcrumb"))
	b.Open("ol", htmlenc.Attr("class", "breadcrumb mb-0"))
	b.Open("li", htmlenc.Attr("class", "breadcrumb-item"))
	b.Open("a", htmlenc.Attr("href", "/")).Open("i", htmlenc.Attr("class", "bi bi-arrow-left")).Close("i").Close("a")
	b.Close("li")
	for i, crumb := range crumbs {
		if i == len(crumbs)-1 {
			b.Open("li", htmlenc.Attr("class", "breadcrumb-item active"), htmlenc.Attr("aria-current", "page")).Text(crumb.Name).Close("li")
		} else {
			b.Open("li", htmlenc.Attr("class", "breadcrumb-item")).Open("a", htmlenc.Attr("href", crumb.Path)).Text(crumb.Name).Close("a").Close("li")
		}
	}
	b.Close("ol")
	b.Close("nav")
}

func dialectBadge(b *htmlenc.Builder, baseDialect string) {
	badgeClass := "text-bg-danger"
	if baseDialect == "2020-12" {
		badgeClass = "text-bg-primary"
	}
	b.Open("a", htmlenc.Attr("href", "https://www.learnjsonschema.com/"+baseDialect), htmlenc.Attr("target", "_blank"))
	b.Open("span", htmlenc.Attr("class", "align-middle badge "+badgeClass))
	if baseDialect != "" {
		b.Text(strings.ToUpper(baseDialect[:1]) + baseDialect[1:])
	}
	b.Close("span").Close("a")
}

func fileManager(b *htmlenc.Builder, nav DirectoryNav) {
	breadcrumbHTML(b, nav.Breadcrumb)
	b.Open("div", htmlenc.Attr("class", "container-fluid p-4 flex-grow-1"))
	b.Open("table", htmlenc.Attr("class", "table table-bordered border-light-subtle table-light"))

	if len(nav.Breadcrumb) > 0 && nav.Title != "" {
		b.Open("div", htmlenc.Attr("class", "mb-4 d-flex")).Open("div")
		b.Open("h2", htmlenc.Attr("class", "fw-bold h4")).Text(nav.Title).Close("h2")
		if nav.Description != "" {
			b.Open("p", htmlenc.Attr("class", "text-secondary")).Text(nav.Description).Close("p")
		}
		b.Close("div").Close("div")
	}

	b.Open("thead").Open("tr")
	b.Open("th", htmlenc.Attr("scope", "col"), htmlenc.Attr("style", "width: 50px")).Close("th")
	b.Open("th", htmlenc.Attr("scope", "col")).Text("Name").Close("th")
	b.Open("th", htmlenc.Attr("scope", "col")).Text("Title").Close("th")
	b.Open("th", htmlenc.Attr("scope", "col")).Text("Description").Close("th")
	b.Close("tr").Close("thead")
	b.Open("tbody")
	for _, entry := range nav.Entries {
		b.Open("tr")
		b.Open("td", htmlenc.Attr("class", "text-nowrap"))
		if entry.Type == "directory" {
			b.Open("i", htmlenc.Attr("class", "bi bi-folder-fill")).Close("i")
		} else {
			dialectBadge(b, entry.BaseDialect)
		}
		b.Close("td")
		b.Open("td", htmlenc.Attr("class", "font-monospace text-nowrap"))
		b.Open("a", htmlenc.Attr("href", "/"+entry.Path)).Text(entry.Name).Close("a")
		b.Close("td")
		b.Open("td").Open("small")
		if entry.Title != "" {
			b.Text(entry.Title)
		} else {
			b.Text("-")
		}
		b.Close("small").Close("td")
		b.Open("td").Open("small")
		if entry.Description != "" {
			b.Text(entry.Description)
		} else {
			b.Text("-")
		}
		b.Close("small").Close("td")
		b.Close("tr")
	}
	b.Close("tbody")
	b.Close("table")
	b.Close("div")
}

func tableRow(b *htmlenc.Builder, label string, value func()) {
	b.Open("tr")
	b.Open("th", htmlenc.Attr("scope", "row"), htmlenc.Attr("class", "text-nowrap")).Text(label).Close("th")
	b.Open("td")
	value()
	b.Close("td")
	b.Close("tr")
}
