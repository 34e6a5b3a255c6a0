package browser

import (
	"encoding/json"
	"fmt"
)

// queryResult is the shape returned by every DOM query script
type queryResult struct {
	Found  bool     `json:"found"`
	Value  string   `json:"value"`
	Values []string `json:"values"`
}

const scrollToBottomJS = `window.scrollTo(0, document.body.scrollHeight); true`

const localStorageJS = `(function() {
	const items = [];
	for (let i = 0; i < localStorage.length; i++) {
		const k = localStorage.key(i);
		items.push({name: k, value: localStorage.getItem(k)});
	}
	return {origin: location.origin, local_storage: items};
})()`

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func existsJS(selector string) string {
	return fmt.Sprintf(`(function() {
	return {found: document.querySelector(%s) !== null};
})()`, quote(selector))
}

func textJS(selector string) string {
	return fmt.Sprintf(`(function() {
	const el = document.querySelector(%s);
	if (!el) return {found: false};
	return {found: true, value: el.innerText || el.textContent || ''};
})()`, quote(selector))
}

func textAllJS(selector string) string {
	return fmt.Sprintf(`(function() {
	const values = [];
	document.querySelectorAll(%s).forEach(el => values.push(el.innerText || el.textContent || ''));
	return {found: values.length > 0, values: values};
})()`, quote(selector))
}

func attributeJS(selector, name string) string {
	return fmt.Sprintf(`(function() {
	const el = document.querySelector(%s);
	if (!el) return {found: false};
	const v = el.getAttribute(%s);
	return {found: v !== null, value: v || ''};
})()`, quote(selector), quote(name))
}

// attributeAllJS reads properties when name is "href" so links come back absolute
func attributeAllJS(selector, name string) string {
	return fmt.Sprintf(`(function() {
	const name = %s;
	const values = [];
	document.querySelectorAll(%s).forEach(el => {
		const v = name === 'href' ? el.href : el.getAttribute(name);
		if (v) values.push(v);
	});
	return {found: values.length > 0, values: values};
})()`, quote(name), quote(selector))
}

func setLocalStorageJS(entries map[string]string) string {
	b, _ := json.Marshal(entries)
	return fmt.Sprintf(`(function() {
	const entries = %s;
	Object.keys(entries).forEach(k => localStorage.setItem(k, entries[k]));
	return true;
})()`, string(b))
}
