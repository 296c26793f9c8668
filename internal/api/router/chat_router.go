package router

import (
	"net/http"

	"livechat-backend/internal/api"
)

// ChatRoutes exposes the single websocket endpoint both visitors and agents
// connect to; the handshake query decides which handling path runs.
func ChatRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		mux.HandleFunc(prefix+"/chat", s.MakeHTTPHandleFunc(s.Gateway().ServeWS))
	}
}
