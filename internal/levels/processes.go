package levels

import (
	"fmt"
	"strconv"
	"strings"

	"termescape/internal/game"
)

const (
	statusRunning = "running"
	statusStopped = "stopped"
)

// Processes is the process-table level: stop the malware, start the
// firewall.
type Processes struct {
	meta
	spec ProcessSpec
}

var processCommands = []string{"ps", "kill", "start", "info"}

func (l *Processes) Initialize(gs *game.GameState) {
	if gs.LevelStates.Processes != nil {
		return
	}
	gs.LevelStates.Processes = &game.ProcessState{Processes: l.seed()}
}

func (l *Processes) seed() []game.Process {
	out := make([]game.Process, 0, len(l.spec.Table))
	for _, row := range l.spec.Table {
		out = append(out, game.Process{
			PID:    row.PID,
			Name:   row.Name,
			CPU:    row.CPU,
			Memory: row.Memory,
			Status: row.Status,
		})
	}
	return out
}

func (l *Processes) Render(gs *game.GameState) []string {
	st := gs.LevelStates.Processes
	if st == nil {
		st = &game.ProcessState{Processes: l.seed()}
	}
	lines := []string{
		"You've gained access to the system's process manager.",
		"Something seems to be consuming a lot of resources.",
		"You need to stop the malicious process and start the firewall.",
		"",
		"Current processes:",
	}
	lines = append(lines, processTable(st.Processes)...)
	status := "VULNERABLE"
	if st.MalwareKilled && st.FirewallStarted {
		status = "SECURE"
	}
	return append(lines,
		"",
		"System status: "+status,
		"",
		`Commands: "ps", "kill [pid]", "start [pid]", "info [pid]"`,
	)
}

func processTable(procs []game.Process) []string {
	lines := []string{
		"PID    NAME         CPU%    MEM%    STATUS",
		"--------------------------------------------",
	}
	for _, p := range procs {
		lines = append(lines, fmt.Sprintf("%-7d%-13s%-8.1f%-8.1f%s", p.PID, p.Name, p.CPU, p.Memory, p.Status))
	}
	return lines
}

func (l *Processes) HandleInput(gs *game.GameState, input string) game.Result {
	l.Initialize(gs)
	st := gs.LevelStates.Processes
	cmd, err := parse(input)
	if err != nil {
		return quoteError(err)
	}

	switch cmd.name {
	case "ps":
		return stay(strings.Join(processTable(st.Processes), "\n"))
	case "kill", "start", "info":
		if len(cmd.args) == 0 {
			return stay(fmt.Sprintf("Usage: %s [pid]", cmd.name))
		}
	default:
		return unknown("Unknown command or invalid syntax.", cmd.name, processCommands)
	}

	pid, err := strconv.Atoi(cmd.arg(0))
	if err != nil {
		return stay(fmt.Sprintf("Invalid PID: %s", cmd.arg(0)))
	}
	proc := findProcess(st, pid)
	if proc == nil {
		return stay(fmt.Sprintf("No process with PID %d found.", pid))
	}
	switch cmd.name {
	case "kill":
		return l.kill(st, proc)
	case "start":
		return l.start(st, proc)
	default:
		return stay(l.info(proc))
	}
}

func findProcess(st *game.ProcessState, pid int) *game.Process {
	for i := range st.Processes {
		if st.Processes[i].PID == pid {
			return &st.Processes[i]
		}
	}
	return nil
}

func (l *Processes) kill(st *game.ProcessState, p *game.Process) game.Result {
	if p.Status == statusStopped {
		return stay(fmt.Sprintf("Process %d (%s) is already stopped.", p.PID, p.Name))
	}
	p.Status = statusStopped
	switch p.Name {
	case l.spec.Malware:
		st.MalwareKilled = true
		if st.FirewallStarted {
			return secured()
		}
		return stay(fmt.Sprintf("Killed malicious process %d (%s). Now start the firewall!", p.PID, p.Name))
	case l.spec.Firewall:
		st.FirewallStarted = false
	}
	return stay(fmt.Sprintf("Process %d (%s) stopped.", p.PID, p.Name))
}

func (l *Processes) start(st *game.ProcessState, p *game.Process) game.Result {
	if p.Status == statusRunning {
		return stay(fmt.Sprintf("Process %d (%s) is already running.", p.PID, p.Name))
	}
	p.Status = statusRunning
	switch p.Name {
	case l.spec.Firewall:
		st.FirewallStarted = true
		if st.MalwareKilled {
			return secured()
		}
		return stay(fmt.Sprintf("Started firewall process %d. Now kill the malware!", p.PID))
	case l.spec.Malware:
		st.MalwareKilled = false
	}
	return stay(fmt.Sprintf("Process %d (%s) started.", p.PID, p.Name))
}

func secured() game.Result {
	return game.Result{
		Completed: true,
		Message:   "System secured! Malware stopped and firewall running.",
		Next:      game.NextLevel,
	}
}

func (l *Processes) info(p *game.Process) string {
	lines := []string{
		"Process Information:",
		fmt.Sprintf("PID: %d", p.PID),
		fmt.Sprintf("Name: %s", p.Name),
		fmt.Sprintf("CPU Usage: %.1f%%", p.CPU),
		fmt.Sprintf("Memory Usage: %.1f%%", p.Memory),
		fmt.Sprintf("Status: %s", p.Status),
	}
	switch p.Name {
	case l.spec.Malware:
		lines = append(lines, "", "WARNING: This process appears to be malicious!")
	case l.spec.Firewall:
		lines = append(lines, "", "NOTE: This is the system's security service.")
	}
	return strings.Join(lines, "\n")
}
