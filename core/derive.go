package core

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sitewise/crewclock/utils"
)

// DeriveShifts pairs a work-session's punch stream into shifts. Punches may
// arrive in any order and for any number of workers; pairing runs per worker
// on the time-sorted stream.
//
// Pairing rules:
//   - IN while another IN is still open: the prior interval is emitted as an
//     open shift (no end, no duration) and tracking moves to the new IN. No
//     time is awarded for the abandoned interval.
//   - OUT closes the open IN; an OUT with no open IN is discarded (it is not
//     attributable to any interval).
//   - a trailing open IN is emitted as an open shift.
func DeriveShifts(punches []Punch) []Shift {
	shifts, _ := pairPunches(punches, nil)
	return shifts
}

// CloseOutShifts is the forced-closure variant, invoked when a supervisor
// ends a work-session. Pairing is identical to DeriveShifts, except every
// interval still open at endAt is closed at endAt with ForcedOut set, and a
// synthetic OUT punch (source "forced") is returned for each such closure so
// the punch history stays consistent with the derived shifts.
//
// Re-running over a history that already contains the synthetic OUTs pairs
// everything and yields no new synthetic punches, so the operation is
// idempotent at the punch level.
func CloseOutShifts(punches []Punch, endAt time.Time) ([]Shift, []Punch) {
	return pairPunches(punches, &endAt)
}

func pairPunches(punches []Punch, endAt *time.Time) ([]Shift, []Punch) {
	var shifts []Shift
	var synthetic []Punch

	byWorker := utils.GroupBy(punches, func(p Punch) int32 { return p.WorkerID })

	var workerIDs []int32
	for id := range byWorker {
		workerIDs = append(workerIDs, id)
	}
	sort.Slice(workerIDs, func(i, j int) bool { return workerIDs[i] < workerIDs[j] })

	for _, workerID := range workerIDs {
		stream := byWorker[workerID]
		sort.Slice(stream, func(i, j int) bool {
			return stream[i].PunchedAt.Before(stream[j].PunchedAt)
		})

		var open *Punch
		for i := range stream {
			p := stream[i]
			switch p.Direction {
			case DirectionIn:
				if open != nil {
					// duplicate clock-in: the prior interval was abandoned
					s, syn := emitOpen(*open, endAt)
					shifts = append(shifts, s)
					if syn != nil {
						synthetic = append(synthetic, *syn)
					}
				}
				open = &stream[i]
			case DirectionOut:
				if open == nil {
					continue // orphan OUT
				}
				shifts = append(shifts, closedShift(*open, p.PunchedAt, p.Source == PunchSourceForced))
				open = nil
			}
		}

		if open != nil {
			s, syn := emitOpen(*open, endAt)
			shifts = append(shifts, s)
			if syn != nil {
				synthetic = append(synthetic, *syn)
			}
		}
	}

	return shifts, synthetic
}

// emitOpen turns a dangling IN into either an open shift (live derivation) or
// a force-closed shift plus its synthetic OUT punch (forced closure). An IN
// recorded at or after endAt cannot be closed without a negative duration, so
// it stays open even on the forced path.
func emitOpen(in Punch, endAt *time.Time) (Shift, *Punch) {
	if endAt == nil || !in.PunchedAt.Before(*endAt) {
		return Shift{
			WorkSessionID: in.WorkSessionID,
			WorkerID:      in.WorkerID,
			StartAt:       in.PunchedAt,
		}, nil
	}

	syn := Punch{
		ID:            uuid.NewString(),
		WorkSessionID: in.WorkSessionID,
		WorkerID:      in.WorkerID,
		Direction:     DirectionOut,
		PunchedAt:     *endAt,
		Source:        PunchSourceForced,
	}
	return closedShift(in, *endAt, true), &syn
}

func closedShift(in Punch, out time.Time, forced bool) Shift {
	mins := int(out.Sub(in.PunchedAt) / time.Minute)
	return Shift{
		WorkSessionID: in.WorkSessionID,
		WorkerID:      in.WorkerID,
		StartAt:       in.PunchedAt,
		EndAt:         utils.Ptr(out),
		DurationMins:  utils.Ptr(mins),
		ForcedOut:     forced,
	}
}
