package syncplay

import "context"

type pausedStateT struct{}

func (pausedStateT) Name() string { return "Paused" }

func (pausedStateT) Handle(ctx context.Context, c *GroupController, req Request) error {
	switch req.Kind {
	case RequestUnpause:
		c.pendingResume = true
		c.SetAllBuffering(true)
		c.SetState(waitingState)
		c.SendCommand(req.SessionID, AudienceAllGroup, CommandUnpause)
		return nil

	case RequestPause:
		// already paused: acknowledge with a corrective command rather
		// than an error, clients retry this on reconnect.
		c.SendCommand(req.SessionID, AudienceCurrentSession, CommandPause)
		return nil

	case RequestReady:
		// not waiting: resend the current paused state to the sender.
		c.SendCommand(req.SessionID, AudienceCurrentSession, CommandPause)
		return nil

	case RequestSeek:
		var p SeekParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		c.PositionTicks = c.SanitizePositionTicks(p.PositionTicks)
		c.pendingResume = false
		c.SetAllBuffering(true)
		c.SetState(waitingState)
		c.SendCommand(req.SessionID, AudienceAllGroup, CommandSeek)
		return nil

	case RequestNextTrack:
		advanced, err := c.NextItemInQueue(ctx)
		if err != nil {
			return err
		}
		if !advanced {
			c.SetState(idleState)
			c.SendCommand(req.SessionID, AudienceAllGroup, CommandStop)
			return nil
		}
		c.pendingResume = false
		c.SetAllBuffering(true)
		c.SetState(waitingState)
		c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
		return nil

	case RequestPreviousTrack:
		advanced, err := c.PreviousItemInQueue(ctx)
		if err != nil {
			return err
		}
		if !advanced {
			return nil
		}
		c.pendingResume = false
		c.SetAllBuffering(true)
		c.SetState(waitingState)
		c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
		return nil

	case RequestStop:
		c.Queue.Reset()
		c.SetState(idleState)
		c.SendCommand(req.SessionID, AudienceAllGroup, CommandStop)
		return nil

	case RequestSetPlaylistItem:
		var p SetPlaylistItemParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		if err := c.SetPlayingItemByPlaylistID(ctx, p.PlaylistItemID); err != nil {
			return err
		}
		c.pendingResume = false
		c.SetAllBuffering(true)
		c.SetState(waitingState)
		c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
		return nil

	case RequestQueue, RequestRemoveFromPlaylist, RequestMovePlaylistItem,
		RequestSetRepeatMode, RequestSetShuffleMode, RequestSetIgnoreWait:
		return idleState.Handle(ctx, c, req)

	default:
		return ErrInvalidRequest
	}
}
