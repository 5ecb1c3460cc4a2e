// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/auth"
	"github.com/tomtom215/dino/internal/authz"
	"github.com/tomtom215/dino/internal/cache"
	"github.com/tomtom215/dino/internal/config"
	"github.com/tomtom215/dino/internal/database"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/models"
	"github.com/tomtom215/dino/internal/presence"
	"github.com/tomtom215/dino/internal/sharedstore"
)

func TestMain(m *testing.M) {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
	os.Exit(m.Run())
}

// =============================================================================
// Fakes
// =============================================================================

type emitted struct {
	event string
	data  any
}

type replied struct {
	verb string
	res  activity.Result
}

type fakePeer struct {
	id  string
	ctx context.Context

	mu         sync.Mutex
	userID     string
	emits      []emitted
	replies    []replied
	closed     bool
	closeAfter time.Duration
}

func newFakePeer(id string) *fakePeer {
	return &fakePeer{id: id, ctx: context.Background()}
}

func (p *fakePeer) ID() string               { return p.id }
func (p *fakePeer) Context() context.Context { return p.ctx }

func (p *fakePeer) Emit(event string, data any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.emits = append(p.emits, emitted{event: event, data: data})
	return true
}

func (p *fakePeer) Reply(verb string, res activity.Result) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, replied{verb: verb, res: res})
	return true
}

func (p *fakePeer) SetUserID(userID string) {
	p.mu.Lock()
	p.userID = userID
	p.mu.Unlock()
}

func (p *fakePeer) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *fakePeer) CloseAfter(d time.Duration) {
	p.mu.Lock()
	p.closeAfter = d
	p.mu.Unlock()
}

func (p *fakePeer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// events returns every emitted frame named event.
func (p *fakePeer) events(event string) []emitted {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []emitted
	for _, e := range p.emits {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (p *fakePeer) got(event string) bool { return len(p.events(event)) > 0 }

func (p *fakePeer) reset() {
	p.mu.Lock()
	p.emits = nil
	p.replies = nil
	p.mu.Unlock()
}

// fakeSockets is an in-process stand-in for the websocket hub.
type fakeSockets struct {
	mu    sync.Mutex
	peers map[string]*fakePeer
	rooms map[string]map[string]struct{}
}

func newFakeSockets() *fakeSockets {
	return &fakeSockets{peers: map[string]*fakePeer{}, rooms: map[string]map[string]struct{}{}}
}

func (f *fakeSockets) add(p *fakePeer) {
	f.mu.Lock()
	f.peers[p.id] = p
	f.mu.Unlock()
}

func (f *fakeSockets) Join(sid, roomID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.rooms[roomID]
	if !ok {
		set = map[string]struct{}{}
		f.rooms[roomID] = set
	}
	_, had := set[sid]
	set[sid] = struct{}{}
	return !had
}

func (f *fakeSockets) Leave(sid, roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms[roomID], sid)
}

func (f *fakeSockets) LeaveAll(sid string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for roomID, set := range f.rooms {
		if _, ok := set[sid]; ok {
			delete(set, sid)
			out = append(out, roomID)
		}
	}
	sort.Strings(out)
	return out
}

func (f *fakeSockets) RoomsForSid(sid string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for roomID, set := range f.rooms {
		if _, ok := set[sid]; ok {
			out = append(out, roomID)
		}
	}
	sort.Strings(out)
	return out
}

func (f *fakeSockets) Members(roomID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.rooms[roomID]))
	for sid := range f.rooms[roomID] {
		out = append(out, sid)
	}
	sort.Strings(out)
	return out
}

func (f *fakeSockets) peer(sid string) (*fakePeer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.peers[sid]
	return p, ok
}

func (f *fakeSockets) EmitToRoom(roomID, event string, data any, skip ...string) int {
	n := 0
	for _, sid := range f.Members(roomID) {
		if len(skip) > 0 && sid == skip[0] {
			continue
		}
		if f.EmitToSid(sid, event, data) {
			n++
		}
	}
	return n
}

func (f *fakeSockets) EmitToSid(sid, event string, data any) bool {
	p, ok := f.peer(sid)
	if !ok {
		return false
	}
	return p.Emit(event, data)
}

func (f *fakeSockets) Broadcast(event string, data any) {
	f.mu.Lock()
	peers := make([]*fakePeer, 0, len(f.peers))
	for _, p := range f.peers {
		peers = append(peers, p)
	}
	f.mu.Unlock()
	for _, p := range peers {
		p.Emit(event, data)
	}
}

func (f *fakeSockets) CloseSid(sid string) bool {
	p, ok := f.peer(sid)
	if !ok {
		return false
	}
	p.Close()
	return true
}

// recordingPublisher keeps every published activity.
type recordingPublisher struct {
	mu       sync.Mutex
	internal []*activity.Activity
	external []*activity.Activity
}

func (r *recordingPublisher) PublishInternal(_ context.Context, a *activity.Activity) {
	r.mu.Lock()
	r.internal = append(r.internal, a)
	r.mu.Unlock()
}

func (r *recordingPublisher) PublishExternal(_ context.Context, a *activity.Activity) {
	r.mu.Lock()
	r.external = append(r.external, a)
	r.mu.Unlock()
}

func (r *recordingPublisher) internalVerb(verb activity.Verb) []*activity.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*activity.Activity
	for _, a := range r.internal {
		if a.Verb == verb {
			out = append(out, a)
		}
	}
	return out
}

func (r *recordingPublisher) externalVerb(verb activity.Verb) []*activity.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*activity.Activity
	for _, a := range r.external {
		if a.Verb == verb {
			out = append(out, a)
		}
	}
	return out
}

type whisperFunc func(sender, target string) (WhisperDecision, error)

func (f whisperFunc) CanWhisper(_ context.Context, sender, target string) (WhisperDecision, error) {
	return f(sender, target)
}

// =============================================================================
// Harness
// =============================================================================

// cluster is the state nodes share: repository, shared store and sessions.
type cluster struct {
	repo     *database.Memory
	store    sharedstore.Store
	sessions auth.SessionStore
}

func newCluster() *cluster {
	return &cluster{
		repo:     database.NewMemory(),
		store:    sharedstore.NewMemory(),
		sessions: auth.NewMemorySessionStore(time.Hour),
	}
}

type node struct {
	t       *testing.T
	cl      *cluster
	svc     *Service
	sockets *fakeSockets
	pub     *recordingPublisher
	cache   *cache.Cache
	tracker *presence.Tracker
	auth    *auth.Authenticator
	nextSid int

	// relayed counts the internal events already handed to each peer node.
	relayed map[*node]int
}

type nodeOption func(*config.Config, *Deps)

func withWhisper(p WhisperPolicy) nodeOption {
	return func(_ *config.Config, d *Deps) { d.Whisper = p }
}

func withConfig(fn func(*config.Config)) nodeOption {
	return func(cfg *config.Config, _ *Deps) { fn(cfg) }
}

func newNode(t *testing.T, cl *cluster, nodeID string, opts ...nodeOption) *node {
	t.Helper()
	cfg := config.Default()
	cfg.NodeID = nodeID

	local := cache.NewLocal(0, false)
	t.Cleanup(local.Stop)
	c := cache.New(local, cl.store, "test:", cache.DefaultTTLs())
	tracker := presence.NewTracker(c, cl.repo, nil)
	sockets := newFakeSockets()
	tracker.SetRoomIndex(sockets)
	pub := &recordingPublisher{}
	authn := auth.NewAuthenticator(cl.sessions)
	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}

	d := Deps{
		Config:    cfg,
		Repo:      cl.repo,
		Cache:     c,
		Tracker:   tracker,
		Auth:      authn,
		Authz:     enforcer,
		Sockets:   sockets,
		Publisher: pub,
	}
	for _, opt := range opts {
		opt(cfg, &d)
	}
	svc, err := NewService(d)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &node{t: t, cl: cl, svc: svc, sockets: sockets, pub: pub, cache: c, tracker: tracker, auth: authn, relayed: map[*node]int{}}
}

func withHeartbeats(h HeartbeatRecorder) nodeOption {
	return func(_ *config.Config, d *Deps) { d.Heartbeats = h }
}

// relay hands every internal event n published since the last relay to
// the peer node, in order, the way the internal bus would. It returns the
// applied flag of each event by id.
func (n *node) relay(to *node) map[string]bool {
	n.t.Helper()
	n.pub.mu.Lock()
	events := append([]*activity.Activity(nil), n.pub.internal[n.relayed[to]:]...)
	n.relayed[to] = len(n.pub.internal)
	n.pub.mu.Unlock()

	applied := make(map[string]bool, len(events))
	for _, ev := range events {
		ok, err := to.svc.HandleInternal(context.Background(), ev)
		if err != nil {
			n.t.Fatalf("HandleInternal %s on %s: %v", ev.Verb, to.svc.NodeID(), err)
		}
		applied[ev.ID] = ok
	}
	return applied
}

func newTestNode(t *testing.T, opts ...nodeOption) *node {
	t.Helper()
	return newNode(t, newCluster(), "node-a", opts...)
}

// seedRoom creates channel and room when missing.
func (n *node) seedRoom(channelID, roomID, name string) {
	n.t.Helper()
	ctx := context.Background()
	if ok, _ := n.cl.repo.ChannelExists(ctx, channelID); !ok {
		if err := n.cl.repo.CreateChannel(ctx, models.Channel{ID: channelID, Name: "channel " + channelID}, ""); err != nil {
			n.t.Fatalf("CreateChannel: %v", err)
		}
	}
	if err := n.cl.repo.CreateRoom(ctx, models.Room{ID: roomID, ChannelID: channelID, Name: name}, ""); err != nil {
		n.t.Fatalf("CreateRoom: %v", err)
	}
}

// register stores a session for userID with the given name and attributes.
func (n *node) register(userID, name string, attrs map[string]string) {
	n.t.Helper()
	all := map[string]string{models.SessionUserName: name}
	for k, v := range attrs {
		all[k] = v
	}
	if err := n.auth.Register(context.Background(), userID, "tok-"+userID, all); err != nil {
		n.t.Fatalf("Register: %v", err)
	}
}

func (n *node) connect() *fakePeer {
	n.nextSid++
	p := newFakePeer(n.svc.NodeID() + "-sid-" + strconv.Itoa(n.nextSid))
	n.sockets.add(p)
	n.svc.Connect(p)
	return p
}

func loginFrame(userID string) *activity.Activity {
	return &activity.Activity{
		Actor: activity.Entity{
			ID:          userID,
			Attachments: []activity.Attachment{{ObjectType: models.SessionToken, Content: "tok-" + userID}},
		},
	}
}

// login registers, connects and logs userID in, failing the test when the
// login is rejected.
func (n *node) login(userID, name string, attrs map[string]string) *fakePeer {
	n.t.Helper()
	n.register(userID, name, attrs)
	p := n.connect()
	if res := n.send(p, activity.VerbLogin, loginFrame(userID)); !res.OK {
		n.t.Fatalf("login %s: %d %s", userID, res.Code, res.Msg)
	}
	return p
}

func (n *node) send(p *fakePeer, verb activity.Verb, a *activity.Activity) activity.Result {
	n.t.Helper()
	data, err := json.Marshal(a)
	if err != nil {
		n.t.Fatalf("marshal: %v", err)
	}
	return n.svc.HandleFrame(p, string(verb), data)
}

func (n *node) join(p *fakePeer, userID, roomID string) activity.Result {
	n.t.Helper()
	return n.send(p, activity.VerbJoin, &activity.Activity{
		Actor:  activity.Entity{ID: userID},
		Target: &activity.Entity{ID: roomID, ObjectType: activity.TypeRoom},
	})
}

func (n *node) mustJoin(p *fakePeer, userID, roomID string) {
	n.t.Helper()
	if res := n.join(p, userID, roomID); !res.OK {
		n.t.Fatalf("join %s -> %s: %d %s", userID, roomID, res.Code, res.Msg)
	}
}

func messageFrame(userID, roomID, body string) *activity.Activity {
	return &activity.Activity{
		Actor:  activity.Entity{ID: userID},
		Object: &activity.Entity{Content: activity.B64Encode(body)},
		Target: &activity.Entity{ID: roomID, ObjectType: activity.TypeRoom},
	}
}

func wantCode(t *testing.T, res activity.Result, want activity.Code) {
	t.Helper()
	if res.Code != want {
		t.Fatalf("code = %d (%s) msg %q, want %d", res.Code, res.Code, res.Msg, want)
	}
}
