package view

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vango-dev/hookbind/pkg/hook"
)

// voidElements cannot have children and have no closing tag.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// Element is a node of the view tree.
type Element struct {
	tag   string
	owner *hook.Owner

	// mu protects every field below.
	mu       sync.Mutex
	parent   *Element
	detach   func()
	children []*Element

	style map[string]string
	attrs map[string]string
	text  string

	// bindings holds the live binding of each bound slot, keyed by
	// "style:name", "attr:name" or "text".
	bindings map[string]hook.Binding
}

// New creates a detached element.
func New(tag string) *Element {
	return &Element{
		tag:      tag,
		owner:    hook.NewOwner(nil),
		style:    make(map[string]string),
		attrs:    make(map[string]string),
		bindings: make(map[string]hook.Binding),
	}
}

// Tag returns the element's tag name.
func (e *Element) Tag() string {
	return e.tag
}

// Owner returns the lifetime scope of the element's bindings.
func (e *Element) Owner() *hook.Owner {
	return e.owner
}

// Parent returns the parent element, or nil.
func (e *Element) Parent() *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parent
}

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Element(nil), e.children...)
}

// Append adds children to e. A child's owner is disposed with e's, and a
// child already attached elsewhere is moved. Returns e.
//
// Append panics if a child is e or one of its ancestors.
func (e *Element) Append(children ...*Element) *Element {
	for _, c := range children {
		if c == nil {
			continue
		}
		if e.hasAncestor(c) {
			panic(fmt.Sprintf("view: cannot append <%s> to its own descendant <%s>", c.tag, e.tag))
		}
		c.detachFromParent()

		cancel := e.owner.OnCleanup(c.owner.Dispose)
		c.mu.Lock()
		c.parent = e
		c.detach = cancel
		c.mu.Unlock()

		e.mu.Lock()
		e.children = append(e.children, c)
		e.mu.Unlock()
	}
	return e
}

// hasAncestor reports whether a is e or one of e's ancestors.
func (e *Element) hasAncestor(a *Element) bool {
	for cur := e; cur != nil; cur = cur.Parent() {
		if cur == a {
			return true
		}
	}
	return false
}

// Remove detaches e from its parent and disposes its owner, destroying
// every binding in the subtree. A removed element keeps its last values.
func (e *Element) Remove() {
	e.detachFromParent()
	e.owner.Dispose()
}

// Removed reports whether Remove has run on e or an ancestor.
func (e *Element) Removed() bool {
	return e.owner.IsDisposed()
}

func (e *Element) detachFromParent() {
	e.mu.Lock()
	parent, cancel := e.parent, e.detach
	e.parent, e.detach = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if parent == nil {
		return
	}
	parent.mu.Lock()
	for i, c := range parent.children {
		if c == e {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	parent.mu.Unlock()
}

// SetStyle sets a style property. value is either a plain value, applied
// with fmt.Sprint (nil removes the property), or a hook.Source, bound to
// the property and applied at once. Either way a previous binding of the
// property is destroyed. Returns e.
func (e *Element) SetStyle(name string, value any) *Element {
	e.set("style:"+name, value, func(v any) { e.assign(e.style, name, v) })
	return e
}

// SetAttr sets an attribute, like SetStyle.
func (e *Element) SetAttr(name string, value any) *Element {
	e.set("attr:"+name, value, func(v any) { e.assign(e.attrs, name, v) })
	return e
}

// SetText sets the text content. A hook.Source is bound through a callback
// binding owned by the element. Returns e.
func (e *Element) SetText(value any) *Element {
	const slot = "text"
	e.replaceBinding(slot, nil)

	src, ok := value.(hook.Source)
	if !ok {
		e.setText(value)
		return e
	}
	if e.Removed() {
		return e
	}
	b := src.BindFunc(e.setText, e.owner)
	e.replaceBinding(slot, b)
	b.Emit()
	return e
}

func (e *Element) set(slot string, value any, apply func(any)) {
	e.replaceBinding(slot, nil)

	src, ok := value.(hook.Source)
	if !ok {
		apply(value)
		return
	}
	if e.Removed() {
		return
	}
	target := hook.OwnedTarget(hook.TargetFunc(func(_ string, v any) error {
		apply(v)
		return nil
	}), e.owner)
	b := src.BindValue(target, slot)
	e.replaceBinding(slot, b)
	b.Emit()
}

// replaceBinding installs b in slot and destroys the binding it replaces.
func (e *Element) replaceBinding(slot string, b hook.Binding) {
	e.mu.Lock()
	old := e.bindings[slot]
	if b == nil {
		delete(e.bindings, slot)
	} else {
		e.bindings[slot] = b
	}
	e.mu.Unlock()

	if old != nil {
		old.Destroy()
	}
}

func (e *Element) assign(table map[string]string, name string, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v == nil {
		delete(table, name)
		return
	}
	table[name] = fmt.Sprint(v)
}

func (e *Element) setText(v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v == nil {
		e.text = ""
		return
	}
	e.text = fmt.Sprint(v)
}

// Style returns a style property.
func (e *Element) Style(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.style[name]
	return v, ok
}

// Attr returns an attribute.
func (e *Element) Attr(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.attrs[name]
	return v, ok
}

// Text returns the text content.
func (e *Element) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

// Bindings returns the number of live slot bindings on e, not counting
// children.
func (e *Element) Bindings() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, b := range e.bindings {
		if !b.Destroyed() {
			n++
		}
	}
	return n
}

// Render returns the HTML of the subtree. Attributes and style properties
// are emitted in name order.
func (e *Element) Render() string {
	var sb strings.Builder
	e.render(&sb)
	return sb.String()
}

func (e *Element) render(sb *strings.Builder) {
	e.mu.Lock()
	attrs := sortedPairs(e.attrs)
	style := sortedPairs(e.style)
	text := e.text
	children := append([]*Element(nil), e.children...)
	e.mu.Unlock()

	sb.WriteByte('<')
	sb.WriteString(e.tag)
	for _, kv := range attrs {
		if kv[0] == "style" && len(style) > 0 {
			continue
		}
		sb.WriteString(" " + kv[0] + `="` + escapeAttr(kv[1]) + `"`)
	}
	if len(style) > 0 {
		parts := make([]string, len(style))
		for i, kv := range style {
			parts[i] = kv[0] + ": " + kv[1]
		}
		sb.WriteString(` style="` + escapeAttr(strings.Join(parts, "; ")) + `"`)
	}
	sb.WriteByte('>')

	if voidElements[e.tag] {
		return
	}

	sb.WriteString(escapeHTML(text))
	for _, c := range children {
		c.render(sb)
	}
	sb.WriteString("</" + e.tag + ">")
}

func sortedPairs(m map[string]string) [][2]string {
	out := make([][2]string, 0, len(m))
	for k, v := range m {
		out = append(out, [2]string{k, v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
