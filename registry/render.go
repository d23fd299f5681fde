package registry

import (
	"regexp"
	"slices"
	"strings"

	"atomcss/css"
	"atomcss/loader"
)

// vendorRe matches vendor pseudo selectors: browsers drop whole rule when
// they do not understand one of its selectors.
var vendorRe = regexp.MustCompile(`(?i)::?-+(moz|ms|webkit)-\b`)

// RenderOptions controls stylesheet rendering.
type RenderOptions struct {
	// SplitByMedia renders every group separately.
	SplitByMedia bool
	// Pretty renders one rule per line.
	Pretty bool
}

// Rendered is a piece of rendered stylesheet.
type Rendered struct {
	Group   loader.GroupID
	Name    string // registry name
	Content string
}

// RenderCSS renders registered properties. Fallback rule sets of added
// loaders are registered first.
func (r *Registry) RenderCSS(opts RenderOptions) []Rendered {
	for _, src := range r.loaders {
		r.RegisterUnhandled(src)
	}
	if opts.SplitByMedia {
		return r.renderByGroup(opts)
	}
	return r.renderFlat(opts)
}

// StyleSheet returns whole rendered stylesheet as a single string.
func (r *Registry) StyleSheet(opts RenderOptions) string {
	var sb strings.Builder
	for _, part := range r.RenderCSS(opts) {
		sb.WriteString(part.Content)
	}
	return sb.String()
}

// renderByGroup renders one part per group: @global first (font faces
// ahead of properties), then other groups in order of appearance.
func (r *Registry) renderByGroup(opts RenderOptions) []Rendered {
	var (
		parts   []*Rendered
		byGroup = make(map[string]*Rendered)
	)
	part := func(g loader.GroupID) *Rendered {
		p, ok := byGroup[g.ID]
		if !ok {
			p = &Rendered{Group: g, Name: r.name}
			byGroup[g.ID] = p
			parts = append(parts, p)
		}
		return p
	}

	var fonts strings.Builder
	for _, id := range r.fontOrder {
		r.renderFontFace(&fonts, r.fontFaces[id], opts)
	}
	if fonts.Len() > 0 {
		part(loader.Global())
	}

	contents := make(map[string]*strings.Builder)
	for _, prop := range r.order {
		for _, g := range prop.Groups {
			p := part(g)
			sb, ok := contents[p.Group.ID]
			if !ok {
				sb = &strings.Builder{}
				contents[p.Group.ID] = sb
			}
			r.renderProperty(sb, prop, opts)
		}
	}

	out := make([]Rendered, 0, len(parts))
	if global, ok := byGroup[loader.GlobalID]; ok {
		global.Content = fonts.String()
		if sb, ok := contents[loader.GlobalID]; ok {
			global.Content += sb.String()
		}
		out = append(out, *global)
	}
	for _, p := range parts {
		if p.Group.ID == loader.GlobalID {
			continue
		}
		p.Content = contents[p.Group.ID].String()
		out = append(out, *p)
	}
	return out
}

// renderFlat renders single part: @global, then media groups ordered by id
// wrapped into @media blocks. Document groups are not rendered.
func (r *Registry) renderFlat(opts RenderOptions) []Rendered {
	parts := r.renderByGroup(opts)

	var media []Rendered
	var sb strings.Builder
	for _, p := range parts {
		switch p.Group.Kind {
		case loader.GroupKindNone:
			sb.WriteString(p.Content)
		case loader.GroupKindMedia:
			media = append(media, p)
		}
	}
	slices.SortStableFunc(media, func(a, b Rendered) int {
		return strings.Compare(a.Group.ID, b.Group.ID)
	})

	for _, p := range media {
		if opts.Pretty {
			sb.WriteString("@media " + p.Group.Query + " {\n")
			for _, line := range strings.SplitAfter(strings.TrimSuffix(p.Content, "\n"), "\n") {
				sb.WriteString("  " + line)
			}
			sb.WriteString("\n}\n")
			continue
		}
		sb.WriteString("@media " + p.Group.Query + "{" + p.Content + "}")
	}

	return []Rendered{{Group: loader.Global(), Name: r.name, Content: sb.String()}}
}

func (r *Registry) renderProperty(sb *strings.Builder, prop *RegisteredProperty, opts RenderOptions) {
	var (
		multi []string
		seen  = make(map[string]bool)
	)
	for _, sel := range prop.Selectors {
		text := r.selectorText(prop, sel)
		if text == "" {
			continue
		}
		if vendorRe.MatchString(text) {
			writeRule(sb, []string{text}, prop, opts)
			continue
		}
		if !seen[text] {
			seen[text] = true
			multi = append(multi, text)
		}
	}
	if len(multi) > 0 {
		writeRule(sb, multi, prop, opts)
	}
}

// selectorText replaces primary class of the selector with generated name
// when policy allows it and the property was ever requested.
func (r *Registry) selectorText(prop *RegisteredProperty, sel css.Selector) string {
	if _, ok := sel.Class(); !ok || prop.MangledName == "" {
		return sel.Raw
	}
	if r.canMangle != nil && !r.canMangle(sel) {
		return sel.Raw
	}
	return "." + prop.MangledName + sel.Suffix()
}

func writeRule(sb *strings.Builder, selectors []string, prop *RegisteredProperty, opts RenderOptions) {
	if opts.Pretty {
		sb.WriteString(strings.Join(selectors, ", ") + " { " + prop.RuleName + ": " + prop.Value() + " }\n")
		return
	}
	sb.WriteString(strings.Join(selectors, ",") + "{" + prop.RuleName + ":" + prop.Value() + "}")
}

func (r *Registry) renderFontFace(sb *strings.Builder, entries []*loader.RuleSetEntry, opts RenderOptions) {
	for _, e := range entries {
		if opts.Pretty {
			sb.WriteString("@font-face {\n")
			for _, d := range e.Rules {
				sb.WriteString("  " + d.Property + ": " + declValue(d) + ";\n")
			}
			sb.WriteString("}\n")
			continue
		}
		sb.WriteString("@font-face{")
		for _, d := range e.Rules {
			sb.WriteString(d.Property + ":" + declValue(d) + ";")
		}
		sb.WriteString("}")
	}
}

func declValue(d loader.Declaration) string {
	if d.Important {
		return d.Value + " !important"
	}
	return d.Value
}
