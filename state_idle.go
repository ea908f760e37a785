package syncplay

import "context"

type idleStateT struct{}

func (idleStateT) Name() string { return "Idle" }

func (idleStateT) Handle(ctx context.Context, c *GroupController, req Request) error {
	switch req.Kind {
	case RequestPlay:
		var p PlayParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		if !c.SetPlayQueue(ctx, p.PlayingQueue, p.PlayingItemPosition, p.StartPositionTicks) {
			return ErrLibraryAccessDenied
		}
		c.pendingResume = true
		c.SetState(waitingState)
		c.SetAllBuffering(true)
		c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
		return nil

	case RequestSetPlaylistItem:
		var p SetPlaylistItemParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		if err := c.SetPlayingItemByPlaylistID(ctx, p.PlaylistItemID); err != nil {
			return err
		}
		c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
		return nil

	case RequestQueue:
		var p QueueParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		if !c.AddToPlayQueue(ctx, p.ItemIDs, p.Mode == "QueueNext") {
			return ErrLibraryAccessDenied
		}
		c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
		return nil

	case RequestRemoveFromPlaylist:
		var p RemoveFromPlaylistParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		if err := c.RemoveFromPlayQueue(ctx, p.PlaylistItemIDs); err != nil {
			return err
		}
		c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
		return nil

	case RequestMovePlaylistItem:
		var p MovePlaylistItemParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		if err := c.MoveItemInPlayQueue(ctx, p.PlaylistItemID, p.NewIndex); err != nil {
			return err
		}
		c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
		return nil

	case RequestSetRepeatMode:
		var p SetRepeatModeParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		c.Queue.SetRepeatMode(RepeatMode(p.Mode))
		c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
		return nil

	case RequestSetShuffleMode:
		var p SetShuffleModeParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		c.Queue.SetShuffleMode(ShuffleMode(p.Mode))
		c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
		return nil

	case RequestSetIgnoreWait:
		var p SetIgnoreWaitParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		if m, ok := c.Member(req.SessionID); ok {
			m.IgnoreWait = p.IgnoreWait
		}
		return nil

	case RequestStop:
		return nil // already idle

	case RequestReady:
		// not waiting: tell the sender nothing is playing.
		c.SendCommand(req.SessionID, AudienceCurrentSession, CommandStop)
		return nil

	default:
		return ErrInvalidRequest
	}
}
