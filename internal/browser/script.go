// internal/browser/script.go
package browser

import "strings"

const (
	// bindingName is the page function that delivers picker events to Go.
	bindingName = "selectorPickEvent"
	// markerAttr tags the element that was last clicked so it can be found
	// in the DevTools DOM snapshot.
	markerAttr = "data-selector-pick"
)

// Event kinds sent through the binding.
const (
	kindReady  = "ready"
	kindClick  = "click"
	kindToggle = "toggle"
)

// captureScriptTemplate runs in every frame of every document. The overlay
// hangs off <html> so it never shifts the child positions under <body>.
const captureScriptTemplate = `(() => {
  if (window.__selectorPick) return;
  const BINDING = "{{binding}}", ATTR = "{{attr}}", TOKEN = "{{token}}";
  let active = false;
  let overlay = null;
  let hovered = null, hoveredCursor = "";

  const send = (payload) => {
    try { window[BINDING](JSON.stringify(payload)); } catch (e) {}
  };
  const ensureOverlay = () => {
    if (overlay || !document.documentElement) return overlay;
    overlay = document.createElement("div");
    overlay.style.cssText = "position:fixed;pointer-events:none;z-index:2147483647;" +
      "border:2px solid #e8590c;background:rgba(232,89,12,0.12);display:none;";
    document.documentElement.appendChild(overlay);
    return overlay;
  };
  const highlight = (el) => {
    const o = ensureOverlay();
    if (!o) return;
    const r = el.getBoundingClientRect();
    o.style.top = r.top + "px";
    o.style.left = r.left + "px";
    o.style.width = r.width + "px";
    o.style.height = r.height + "px";
    o.style.display = "block";
  };
  const hide = () => { if (overlay) overlay.style.display = "none"; };
  const restoreCursor = () => {
    if (hovered) { hovered.style.cursor = hoveredCursor; hovered = null; }
  };

  document.addEventListener("mouseover", (e) => {
    if (!active || !(e.target instanceof Element)) return;
    restoreCursor();
    hovered = e.target;
    hoveredCursor = e.target.style.cursor;
    e.target.style.cursor = "crosshair";
    highlight(e.target);
  }, true);

  document.addEventListener("click", (e) => {
    if (!active || !(e.target instanceof Element)) return;
    e.preventDefault();
    e.stopPropagation();
    const prev = document.querySelector("[" + ATTR + "]");
    if (prev) prev.removeAttribute(ATTR);
    e.target.setAttribute(ATTR, TOKEN);
    highlight(e.target);
    send({kind: "click", token: TOKEN, url: location.href});
  }, true);

  document.addEventListener("keydown", (e) => {
    if (e.altKey && e.shiftKey && e.code === "KeyS") {
      e.preventDefault();
      send({kind: "toggle", active: !active});
    }
  }, true);

  window.__selectorPick = {
    setActive(v) {
      active = !!v;
      if (!active) { hide(); restoreCursor(); }
    },
    isActive() { return active; },
  };
  send({kind: "ready", url: location.href});
})();`

// captureScript returns the page script for a session marker token.
func captureScript(token string) string {
	return strings.NewReplacer(
		"{{binding}}", bindingName,
		"{{attr}}", markerAttr,
		"{{token}}", token,
	).Replace(captureScriptTemplate)
}

// setActiveScript applies a STATE_CHANGED message inside the page.
func setActiveScript(active bool) string {
	if active {
		return "window.__selectorPick && window.__selectorPick.setActive(true)"
	}
	return "window.__selectorPick && window.__selectorPick.setActive(false)"
}
