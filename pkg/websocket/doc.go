// Package websocket implements the server side of the WebSocket opening
// handshake (RFC 6455 section 4.2) on top of a plain listening socket.
//
// A Server binds a port, accepts a single client at a time and upgrades it:
//
//	s, err := websocket.NewServer(config.Default())
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	conn, err := s.Accept()
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	op, msg, err := conn.Receive()
//
// Handshake can be used directly on any net.Conn. Message framing after
// the upgrade is delegated to github.com/gobwas/ws.
package websocket
