// Package view is a minimal element tree driven by hook bindings.
//
// Every Element owns a hook.Owner. Style, attribute and text slots accept
// either a plain value or a hook.Source; a Source is bound to the slot and
// re-applied on every write to the keys it observes. Removing an element
// disposes its owner, which destroys the bindings of the whole subtree.
//
//	store := hook.MustWrap(map[string]any{"title": "Intro", "views": 3})
//	title, _ := hook.Key(store, "title")
//	views, _ := hook.BindFromKeys[string](store, "views", func(n int) string {
//	    return strconv.Itoa(n) + " views"
//	})
//
//	card := view.New("div").Append(
//	    view.New("h2").SetText(title),
//	    view.New("span").SetText(views),
//	)
//	store.Set("views", 4) // the span now reads "4 views"
//	card.Remove()         // every binding above is destroyed
package view
