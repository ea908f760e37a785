// Package synctest provides hand-rolled fakes for SyncPlay's external
// collaborator interfaces, with no mocking framework.
package synctest

import (
	"context"
	"sync"
	"time"

	"github.com/deluan/syncplay"
)

// FakeSessions is an in-memory SessionRegistry.
type FakeSessions struct {
	mu       sync.Mutex
	Sessions map[string]syncplay.SessionInfo
}

func NewFakeSessions() *FakeSessions {
	return &FakeSessions{Sessions: make(map[string]syncplay.SessionInfo)}
}

func (f *FakeSessions) Add(info syncplay.SessionInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sessions[info.SessionID] = info
}

func (f *FakeSessions) GetSession(ctx context.Context, sessionID string) (syncplay.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.Sessions[sessionID]
	if !ok {
		return syncplay.SessionInfo{}, syncplay.ErrNotInGroup
	}
	return info, nil
}

// ActiveUserIDs returns the distinct user ids behind every registered
// session, in no particular order.
func (f *FakeSessions) ActiveUserIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]struct{}, len(f.Sessions))
	var out []string
	for _, info := range f.Sessions {
		if _, ok := seen[info.UserID]; ok {
			continue
		}
		seen[info.UserID] = struct{}{}
		out = append(out, info.UserID)
	}
	return out, nil
}

// FakeUsers is an in-memory UserService; Allowed defaults to true for
// unknown users so tests opt in to restrictions explicitly.
type FakeUsers struct {
	mu              sync.Mutex
	Allowed         map[string]bool
	RatingCaps      map[string]int
	AllFolders      map[string]bool
	EnabledFolders  map[string][]string
}

func NewFakeUsers() *FakeUsers {
	return &FakeUsers{
		Allowed:        make(map[string]bool),
		RatingCaps:     make(map[string]int),
		AllFolders:     make(map[string]bool),
		EnabledFolders: make(map[string][]string),
	}
}

func (f *FakeUsers) HasSyncPlayAccess(ctx context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.Allowed[userID]; ok {
		return v, nil
	}
	return true, nil
}

func (f *FakeUsers) ParentalRatingCap(ctx context.Context, userID string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cap, ok := f.RatingCaps[userID]
	return cap, ok, nil
}

func (f *FakeUsers) EnabledFolders(ctx context.Context, userID string) (bool, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if all, ok := f.AllFolders[userID]; ok && all {
		return true, nil, nil
	}
	folders, ok := f.EnabledFolders[userID]
	if !ok {
		return true, nil, nil
	}
	return false, folders, nil
}

// FakeLibrary is an in-memory LibraryAccess.
type FakeLibrary struct {
	mu    sync.Mutex
	Items map[string]syncplay.LibraryItem
}

func NewFakeLibrary() *FakeLibrary {
	return &FakeLibrary{Items: make(map[string]syncplay.LibraryItem)}
}

func (f *FakeLibrary) GetItems(ctx context.Context, itemIDs []string) (map[string]syncplay.LibraryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]syncplay.LibraryItem, len(itemIDs))
	for _, id := range itemIDs {
		if it, ok := f.Items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

type delivered struct {
	sessionID string
	update    *syncplay.GroupUpdate
	command   *syncplay.Command
}

// FakeDeliverer records every delivery in order; WaitFor polls for a
// delivery count since fire-and-forget dispatch runs on its own
// goroutines and tests need a way to synchronize around that.
type FakeDeliverer struct {
	mu  sync.Mutex
	log []delivered
}

func NewFakeDeliverer() *FakeDeliverer { return &FakeDeliverer{} }

func (f *FakeDeliverer) DeliverUpdate(ctx context.Context, sessionID string, update syncplay.GroupUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, delivered{sessionID: sessionID, update: &update})
	return nil
}

func (f *FakeDeliverer) DeliverCommand(ctx context.Context, sessionID string, command syncplay.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, delivered{sessionID: sessionID, command: &command})
	return nil
}

// Count returns the number of deliveries recorded so far.
func (f *FakeDeliverer) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.log)
}

// UpdatesFor returns every update delivered to sessionID, in order.
func (f *FakeDeliverer) UpdatesFor(sessionID string) []syncplay.GroupUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []syncplay.GroupUpdate
	for _, d := range f.log {
		if d.sessionID == sessionID && d.update != nil {
			out = append(out, *d.update)
		}
	}
	return out
}

// CommandsFor returns every command delivered to sessionID, in order.
func (f *FakeDeliverer) CommandsFor(sessionID string) []syncplay.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []syncplay.Command
	for _, d := range f.log {
		if d.sessionID == sessionID && d.command != nil {
			out = append(out, *d.command)
		}
	}
	return out
}

// WaitFor polls (bounded by timeout) until at least n deliveries have
// been recorded, for synchronizing around the Manager's fire-and-forget
// dispatch goroutines.
func (f *FakeDeliverer) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if f.Count() >= n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return f.Count() >= n
}
