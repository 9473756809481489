// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the game handlers. These give
// clients a more specific reason for closure than the standard codes.
const (
	BadSubprotocolError    = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError  = 3001 // Provided auth token was invalid or expired.
	InvalidHandshakeError  = 3002 // First frame was not a valid connect envelope.
	InvalidInviteCodeError = 3003 // Invite code does not resolve to a lobby.
	LobbyFullError         = 3004 // Lobby is at its configured capacity.
	GameInProgressError    = 3005 // Lobby already started its round timeline.
)
