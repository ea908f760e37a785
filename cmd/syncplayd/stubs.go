package main

import (
	"context"

	"github.com/deluan/syncplay"
)

// The stubs below exist only so this binary links and demonstrates
// wiring; a real deployment supplies its own SessionRegistry,
// UserService, and LibraryAccess backed by its session store, user
// directory, and library catalog.

type stubSessions struct{}

func (stubSessions) GetSession(ctx context.Context, sessionID string) (syncplay.SessionInfo, error) {
	return syncplay.SessionInfo{SessionID: sessionID, UserID: sessionID}, nil
}

func (stubSessions) ActiveUserIDs(ctx context.Context) ([]string, error) {
	return nil, nil
}

type stubUsers struct{}

func (stubUsers) HasSyncPlayAccess(ctx context.Context, userID string) (bool, error) {
	return true, nil
}

func (stubUsers) ParentalRatingCap(ctx context.Context, userID string) (int, bool, error) {
	return 0, false, nil
}

func (stubUsers) EnabledFolders(ctx context.Context, userID string) (bool, []string, error) {
	return true, nil, nil
}

type stubLibrary struct{}

func (stubLibrary) GetItems(ctx context.Context, itemIDs []string) (map[string]syncplay.LibraryItem, error) {
	return nil, nil
}
