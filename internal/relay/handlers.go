// Package relay exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package relay

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// NewWebSocketHandler returns the handler for WebSocket upgrade requests,
// bound to the given hub. It validates that the request uses the GET
// method, upgrades the HTTP connection to WebSocket, creates a new Client,
// and registers it with the hub, which launches the pump goroutines.
func NewWebSocketHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(conn, hub, r.RemoteAddr)
		hub.register <- client
	}
}

// HealthHandler provides a simple health check endpoint that returns server
// status. It responds with a plain text message indicating the relay is
// running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Chat relay is running!")
}

// TestPageHandler serves an HTML test page for exercising the relay by
// hand. It provides a simple web interface to connect, run setup, join a
// conversation, and emit the chat events while watching what comes back.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Chat Relay Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #events {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
            font-family: monospace;
            font-size: 13px;
        }
        input[type="text"] {
            width: 220px;
            padding: 5px;
            margin-right: 10px;
        }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
            margin-right: 5px;
        }
        button:hover { background-color: #005a87; }
        .row { margin: 8px 0; }
        .status {
            margin: 10px 0;
            padding: 5px;
            border-radius: 3px;
        }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>Chat Relay Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div class="row">
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>
    <div class="row">
        <input type="text" id="userId" placeholder="user id">
        <button onclick="emit('setup', userId.value)">setup</button>
    </div>
    <div class="row">
        <input type="text" id="chatId" placeholder="chat id">
        <button onclick="emit('join chat', chatId.value)">join chat</button>
        <button onclick="emit('typing', chatId.value)">typing</button>
        <button onclick="emit('stop typing', chatId.value)">stop typing</button>
        <button onclick="emit('clear chat', chatId.value)">clear chat</button>
    </div>
    <div class="row">
        <input type="text" id="peerId" placeholder="peer user id">
        <button onclick="sendMessage()">new message</button>
    </div>

    <div id="events"></div>

    <script>
        let ws = null;
        const eventsDiv = document.getElementById('events');
        const statusDiv = document.getElementById('status');
        const connectButton = document.getElementById('connectButton');

        function addLine(text, color) {
            const line = document.createElement('div');
            line.style.color = color || 'black';
            line.textContent = text;
            eventsDiv.appendChild(line);
            eventsDiv.scrollTop = eventsDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
        }

        function connect() {
            ws = new WebSocket('ws://' + location.host + '/ws');
            ws.onopen = function() { addLine('-- connected --', 'gray'); updateStatus(true); };
            ws.onmessage = function(e) { addLine('<< ' + e.data, 'green'); };
            ws.onclose = function() { addLine('-- closed --', 'gray'); updateStatus(false); ws = null; };
            ws.onerror = function(e) { addLine('-- error --', 'red'); };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) { ws.close(); } else { connect(); }
        }

        function emit(event, payload) {
            if (!ws || ws.readyState !== WebSocket.OPEN) { return; }
            const frame = JSON.stringify({event: event, payload: payload});
            ws.send(frame);
            addLine('>> ' + frame, 'blue');
        }

        function sendMessage() {
            const me = document.getElementById('userId').value;
            const peer = document.getElementById('peerId').value;
            emit('new message', {
                sender: {_id: me},
                content: 'hello from the test page',
                chat: {_id: document.getElementById('chatId').value,
                       users: [{_id: me}, {_id: peer}]}
            });
        }
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}
