package syncplay

import "context"

// waitingStateT is the transient state between a playback decision and
// the moment every non-ignored member reports Ready. The pending
// resume-vs-pause decision lives on the Controller (pendingResume), not
// on this value, since states are stateless singletons.
type waitingStateT struct{}

func (waitingStateT) Name() string { return "Waiting" }

func (waitingStateT) Handle(ctx context.Context, c *GroupController, req Request) error {
	switch req.Kind {
	case RequestReady:
		var p ReadyParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		_, currentPID, _ := c.Queue.CurrentItem()
		if p.PlaylistItemID != currentPID {
			c.outbox = append(c.outbox, outboundEnvelope{
				recipients: c.sessionsFor(AudienceCurrentSession, req.SessionID),
				update: &GroupUpdate{GroupID: c.GroupID, Type: UpdatePlayQueue, Payload: struct {
					PlaylistItemID string
				}{currentPID}},
			})
			return nil
		}
		c.SetBuffering(req.SessionID, false)

		if c.HandleReportedPosition(ctx, p.PositionTicks, p.IsPlaying) {
			c.SetAllBuffering(true)
			c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
			return nil
		}

		clamped := c.ClampReportedTime(p.When)
		if clamped.After(c.latestReportedReady) {
			c.latestReportedReady = clamped
		}

		if !c.IsBuffering() {
			readyTime := c.now()
			candidate := c.latestReportedReady.Add(c.cfg.TimeSyncOffset).Add(c.GetHighestPing())
			if candidate.After(readyTime) {
				readyTime = candidate
			}
			c.LastActivity = readyTime
			if c.pendingResume {
				c.SetState(playingState)
				c.SendCommand(req.SessionID, AudienceAllReady, CommandUnpause)
			} else {
				c.SetState(pausedState)
				c.SendCommand(req.SessionID, AudienceAllReady, CommandPause)
			}
		}
		return nil

	case RequestBuffering:
		var p BufferingParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		c.SetBuffering(req.SessionID, !p.BufferingDone)
		if c.HandleReportedPosition(ctx, p.PositionTicks, p.IsPlaying) {
			c.SetAllBuffering(true)
			c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
			return nil
		}
		c.outbox = append(c.outbox, outboundEnvelope{
			recipients: c.sessionsFor(AudienceCurrentSession, req.SessionID),
			command:    ptr(c.NewSyncPlayCommand(CommandSeek)),
		})
		return nil

	case RequestPause:
		c.pendingResume = false
		c.SendCommand(req.SessionID, AudienceAllGroup, CommandPause)
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
		c.SetAllBuffering(true)
		c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
		return nil

	case RequestSeek:
		var p SeekParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ErrInvalidRequest
		}
		c.PositionTicks = c.SanitizePositionTicks(p.PositionTicks)
		c.SetAllBuffering(true)
		c.SendCommand(req.SessionID, AudienceAllGroup, CommandSeek)
		return nil

	case RequestNextTrack:
		advanced, err := c.NextItemInQueue(ctx)
		if err != nil {
			return err
		}
		if !advanced {
			c.SetState(idleState)
			return nil
		}
		c.SetAllBuffering(true)
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
		c.SetAllBuffering(true)
		c.SendGroupUpdate(req.SessionID, AudienceAllGroup, UpdatePlayQueue, c.Queue.Snapshot())
		return nil

	case RequestQueue, RequestRemoveFromPlaylist, RequestMovePlaylistItem,
		RequestSetRepeatMode, RequestSetShuffleMode, RequestSetIgnoreWait:
		return idleState.Handle(ctx, c, req)

	default:
		return ErrInvalidRequest
	}
}
