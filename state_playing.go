package syncplay

import "context"

type playingStateT struct{}

func (playingStateT) Name() string { return "Playing" }

func (playingStateT) Handle(ctx context.Context, c *GroupController, req Request) error {
	switch req.Kind {
	case RequestPause:
		elapsed := c.now().Sub(c.LastActivity)
		pausePos := c.PositionTicks + TicksFromDuration(elapsed)
		c.PositionTicks = c.SanitizePositionTicks(pausePos)
		c.LastActivity = c.now()
		c.SetState(pausedState)
		c.SendCommand(req.SessionID, AudienceAllGroup, CommandPause)
		return nil

	case RequestSeek:
		var p SeekParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		c.SetAllBuffering(true)
		c.PositionTicks = c.SanitizePositionTicks(p.PositionTicks)
		c.pendingResume = true
		c.SetState(waitingState)
		c.SendCommand(req.SessionID, AudienceAllGroup, CommandSeek)
		return nil

	case RequestBuffering:
		var p BufferingParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		c.SetBuffering(req.SessionID, !p.BufferingDone)
		if c.HandleReportedPosition(ctx, p.PositionTicks, p.IsPlaying) {
			c.pendingResume = true
			c.SetAllBuffering(true)
			c.SetState(waitingState)
			c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
			return nil
		}
		if c.IsBuffering() {
			c.PositionTicks = c.SanitizePositionTicks(p.PositionTicks)
			c.pendingResume = true
			c.SetState(waitingState)
			c.SendCommand(req.SessionID, AudienceAllGroup, CommandPause)
		}
		return nil

	case RequestNextTrack:
		var p TrackNavParams
		_ = decodeParams(req.Params, &p)
		_, currentPID, _ := c.Queue.CurrentItem()
		if p.PlaylistItemID != "" && p.PlaylistItemID != currentPID {
			return ErrStaleRequest
		}
		advanced, err := c.NextItemInQueue(ctx)
		if err != nil {
			return err
		}
		if !advanced {
			c.SetState(idleState)
			c.SendCommand(req.SessionID, AudienceAllGroup, CommandStop)
			return nil
		}
		c.pendingResume = true
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
		c.pendingResume = true
		c.SetAllBuffering(true)
		c.SetState(waitingState)
		c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
		return nil

	case RequestUnpause:
		c.SendCommand(req.SessionID, AudienceCurrentSession, CommandUnpause)
		return nil

	case RequestReady:
		// not waiting: resend the current playing state to the sender.
		c.SendCommand(req.SessionID, AudienceCurrentSession, CommandUnpause)
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
		c.pendingResume = true
		c.SetAllBuffering(true)
		c.SetState(waitingState)
		c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
		return nil

	case RequestQueue, RequestRemoveFromPlaylist, RequestMovePlaylistItem,
		RequestSetRepeatMode, RequestSetShuffleMode, RequestSetIgnoreWait:
		before, _, _ := c.Queue.CurrentItem()
		if err := idleState.Handle(ctx, c, req); err != nil {
			return err
		}
		after, _, _ := c.Queue.CurrentItem()
		if before != after {
			c.pendingResume = true
			c.SetAllBuffering(true)
			c.SetState(waitingState)
		}
		return nil

	default:
		return ErrInvalidRequest
	}
}
