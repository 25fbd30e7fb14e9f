package api

import (
	"net/http"

	"github.com/ayusman/holocore/internal/plugin"
)

// PluginHandler lists discovered plugins. POST rescans the plugin directory.
type PluginHandler struct {
	plugins Plugins
}

// NewPluginHandler creates a PluginHandler.
func NewPluginHandler(p Plugins) *PluginHandler {
	return &PluginHandler{plugins: p}
}

type listPluginsResponse struct {
	Plugins []*plugin.Plugin `json:"plugins"`
}

func (h *PluginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := h.plugins.Discover(); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plugins := h.plugins.List()
	if plugins == nil {
		plugins = []*plugin.Plugin{}
	}
	writeJSON(w, http.StatusOK, listPluginsResponse{Plugins: plugins})
}
