package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"

	"github.com/kidzonehq/kidzone-backend/internal/chat"
	"github.com/kidzonehq/kidzone-backend/pkg/logger"
	"github.com/kidzonehq/kidzone-backend/pkg/utils"
)

var SocketServer *socketio.Server

// Presence tracking
var (
	onlineUsers   = make(map[string]string) // userId -> socketId
	onlineUsersMu sync.RWMutex
)

// liveView is the per-connection live state: the session, the
// conversation index and the one active message stream. Everything here
// is torn down when the socket closes.
type liveView struct {
	userID  string
	session *chat.SessionState
	index   *chat.Index
	stream  *chat.Stream
	cancel  context.CancelFunc
}

// GetOnlineUsers returns list of online user IDs
func GetOnlineUsers() []string {
	onlineUsersMu.RLock()
	defer onlineUsersMu.RUnlock()

	users := make([]string, 0, len(onlineUsers))
	for userId := range onlineUsers {
		users = append(users, userId)
	}
	return users
}

// IsUserOnline checks if a user is online
func IsUserOnline(userId string) bool {
	onlineUsersMu.RLock()
	defer onlineUsersMu.RUnlock()
	_, exists := onlineUsers[userId]
	return exists
}

func InitSocketServer() *socketio.Server {
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
			&polling.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
		},
	})

	server.OnConnect("/", func(s socketio.Conn) error {
		url := s.URL()
		token := url.Query().Get("token")
		if token == "" {
			token = url.Query().Get("auth_token")
		}
		if token == "" {
			logger.Warn().Str("socket", s.ID()).Msg("socket rejected: no token")
			return fmt.Errorf("authentication required")
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			logger.Warn().Str("socket", s.ID()).Msg("socket rejected: invalid token")
			return fmt.Errorf("invalid token")
		}
		userId := claims.UserID

		user, err := Chat.Store.GetUser(context.Background(), userId)
		if err != nil {
			return fmt.Errorf("unknown user")
		}
		display := chat.ResolveDisplay(user)

		ctx, cancel := context.WithCancel(context.Background())
		log := logger.With("chat")

		lv := &liveView{
			userID:  userId,
			session: chat.NewSessionState(),
			stream:  chat.NewStream(Chat.Store, Chat.Hub, Chat.Buffer, log),
			cancel:  cancel,
		}
		lv.session.Set(chat.Session{ID: userId, DisplayName: display.Name, PhotoURL: user.Image}, true)

		// Recipient directory is a one-shot snapshot per connection;
		// staleness until reconnect is acceptable.
		dir := chat.LoadDirectory(ctx, Chat.Store, userId, log)
		lv.index = chat.NewIndex(Chat.Store, Chat.Hub, dir, userId, log)

		// Session transitions deactivate the key-scoped stream.
		lv.session.OnChange(func(_ chat.Session, active bool) {
			if !active {
				lv.stream.SetKey(ctx, "")
			}
		})

		s.SetContext(lv)
		s.Join(userId)

		onlineUsersMu.Lock()
		onlineUsers[userId] = s.ID()
		onlineUsersMu.Unlock()

		go lv.index.Run(ctx)
		go forwardUpdates(ctx, s, lv)

		return nil
	})

	// Client selects the counterpart; the stream swaps subscriptions.
	server.OnEvent("/", "select_conversation", func(s socketio.Conn, data map[string]interface{}) {
		lv, ok := s.Context().(*liveView)
		if !ok {
			return
		}
		otherId, _ := data["userId"].(string)

		if _, active := lv.session.Current(); !active {
			return
		}
		key := chat.ConversationKey(lv.userID, otherId)
		lv.stream.SetKey(context.Background(), key)
	})

	server.OnEvent("/", "logout", func(s socketio.Conn, _ string) {
		if lv, ok := s.Context().(*liveView); ok {
			lv.session.Set(chat.Session{}, false)
		}
	})

	server.OnEvent("/", "get_online_users", func(s socketio.Conn, _ string) {
		s.Emit("online_users", GetOnlineUsers())
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		lv, ok := s.Context().(*liveView)
		if !ok {
			return
		}
		lv.session.Set(chat.Session{}, false)
		lv.stream.Close()
		lv.cancel()

		onlineUsersMu.Lock()
		if onlineUsers[lv.userID] == s.ID() {
			delete(onlineUsers, lv.userID)
		}
		onlineUsersMu.Unlock()
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		logger.Error().Err(e).Msg("socket error")
	})

	go func() {
		if err := server.Serve(); err != nil {
			logger.Error().Err(err).Msg("socket.io serve failed")
		}
	}()

	SocketServer = server
	return server
}

// forwardUpdates pushes live snapshots from the per-connection view to
// the client until the connection context ends.
func forwardUpdates(ctx context.Context, s socketio.Conn, lv *liveView) {
	for {
		select {
		case <-ctx.Done():
			return
		case entries := <-lv.index.Updates():
			s.Emit("conversations", entries)
		case snap := <-lv.stream.Updates():
			s.Emit("messages", snap)
		}
	}
}

// SocketHandler wraps the socket.io server for gin routing.
func SocketHandler(server *socketio.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		server.ServeHTTP(c.Writer, c.Request)
	}
}
