package domain

import "time"

// HapticPattern is the vibration pattern in milliseconds played when a phase
// starts.
func HapticPattern(a Action) []int {
	switch a {
	case ActionInhale:
		return []int{100}
	case ActionHold, ActionHoldOut:
		return []int{100, 100, 100}
	case ActionExhale:
		return []int{300}
	}
	return nil
}

// AudioFade describes how ambient audio is faded out once a session ends:
// volume drops by Step every IntervalMs until it is at or below Floor, then
// playback pauses.
type AudioFade struct {
	From       float64 `json:"from"`
	Step       float64 `json:"step"`
	Floor      float64 `json:"floor"`
	IntervalMs int     `json:"intervalMs"`
}

var DefaultAudioFade = AudioFade{From: 0.5, Step: 0.1, Floor: 0.1, IntervalMs: 200}

// Volumes lists the volume after each fade step, ending with zero for the
// pause.
func (f AudioFade) Volumes() []float64 {
	var out []float64
	v := f.From
	for v > f.Floor+1e-9 && f.Step > 0 {
		v -= f.Step
		if v < 0 {
			v = 0
		}
		out = append(out, round2(v))
	}
	return append(out, 0)
}

// Duration is the wall time the fade takes.
func (f AudioFade) Duration() time.Duration {
	return time.Duration(len(f.Volumes())*f.IntervalMs) * time.Millisecond
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
