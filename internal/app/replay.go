package app

import "fmt"

// DecodeCommands turns a replay log into commands, failing on the first bad record.
func DecodeCommands(records []CommandRecord) ([]Command, error) {
	cmds := make([]Command, 0, len(records))
	for i, r := range records {
		cmd, err := r.ToCommand()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// Replay feeds commands through the controller in order and returns every
// emitted event. Rejections are part of the result; a phase error stops the replay.
func Replay(c *DistributionController, cmds []Command) ([]Event, error) {
	var events []Event
	for i, cmd := range cmds {
		evs, err := c.Execute(cmd)
		if err != nil {
			return events, fmt.Errorf("command %d (%T): %w", i, cmd, err)
		}
		events = append(events, evs...)
	}
	return events, nil
}
