// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 HM Lab

package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/hmlab/hubctl/pkg/device"
)

var progressLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

// progressRenderer renders session flash progress on stderr: status
// lines for the erase phase, a progress bar while bytes move.
type progressRenderer struct {
	bar       progress.Model
	lastPhase device.Phase
}

func newProgressRenderer() *progressRenderer {
	return &progressRenderer{
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Callback is wired into the session via device.WithProgress.
func (r *progressRenderer) Callback(p device.Progress) {
	if p.Phase != r.lastPhase {
		switch p.Phase {
		case device.PhaseAwaitErase:
			fmt.Fprintln(os.Stderr, progressLabelStyle.Render("Waiting for flash erase..."))
		case device.PhaseErasing:
			fmt.Fprintln(os.Stderr, progressLabelStyle.Render("Erasing flash..."))
		case device.PhaseWriting:
			fmt.Fprintln(os.Stderr, progressLabelStyle.Render("Erase complete, writing..."))
		case device.PhaseReading:
			fmt.Fprintln(os.Stderr, progressLabelStyle.Render("Reading flash..."))
		}
		r.lastPhase = p.Phase
	}

	switch p.Phase {
	case device.PhaseWriting, device.PhaseReading:
		if p.Total > 0 {
			frac := float64(p.Bytes) / float64(p.Total)
			fmt.Fprintf(os.Stderr, "\r%s %d/%d bytes ", r.bar.ViewAs(frac), p.Bytes, p.Total)
		}
	case device.PhaseDone:
		fmt.Fprintf(os.Stderr, "\r%s %d/%d bytes \n", r.bar.ViewAs(1.0), p.Total, p.Total)
	}
}
