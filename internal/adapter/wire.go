package adapter

// protocolVersion is the PowerstripProtocolVersion carried on every adapter
// exchange. The wire protocol has had exactly one version since the original
// project's inception; there is nothing to negotiate.
const protocolVersion = 1

// ClientRequest mirrors the Docker client's request as seen by an adapter:
// the method, the full request path (including query string), and the body
// captured as a string. Body is nil when the original request's content type
// was not JSON.
type ClientRequest struct {
	Method  string  `json:"Method"`
	Request string  `json:"Request"`
	Body    *string `json:"Body"`
}

// ServerResponse mirrors the Docker daemon's buffered response as seen by an
// adapter, and also doubles as the shape an adapter replies with.
type ServerResponse struct {
	ContentType *string `json:"ContentType"`
	Body        string  `json:"Body"`
	Code        int     `json:"Code"`
}

type preHookRequest struct {
	PowerstripProtocolVersion int           `json:"PowerstripProtocolVersion"`
	Type                      string        `json:"Type"`
	ClientRequest             ClientRequest `json:"ClientRequest"`
}

type preHookResponse struct {
	PowerstripProtocolVersion int           `json:"PowerstripProtocolVersion"`
	ModifiedClientRequest     ClientRequest `json:"ModifiedClientRequest"`
}

type postHookRequest struct {
	PowerstripProtocolVersion int            `json:"PowerstripProtocolVersion"`
	Type                      string         `json:"Type"`
	ClientRequest             ClientRequest  `json:"ClientRequest"`
	ServerResponse            ServerResponse `json:"ServerResponse"`
}

type postHookResponse struct {
	PowerstripProtocolVersion int            `json:"PowerstripProtocolVersion"`
	ModifiedServerResponse    ServerResponse `json:"ModifiedServerResponse"`
}
