package systems

import (
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/stagecraft/component"
	"github.com/lixenwraith/stagecraft/engine"
	"github.com/lixenwraith/stagecraft/schedule"
	"github.com/lixenwraith/stagecraft/status"
)

// NewReportSystem logs the stage layout and metrics; the headless replacement of the renderer
func NewReportSystem() schedule.System {
	return schedule.NewSystem("report", func(c *schedule.Context) {
		log, ok := schedule.Resource[logrus.FieldLogger](c)
		if !ok {
			return
		}
		settings := schedule.MustResource[*engine.Settings](c)

		busy := settings.BusyStages()
		names := make([]string, len(busy))
		for i, st := range busy {
			names[i] = st.Name + "@" + RateLabel(st.Frequency)
		}
		fields := logrus.Fields{
			"frame":     settings.Frame(),
			"busy":      names,
			"particles": schedule.Components[component.Position](c).Count(),
		}
		if m, ok := schedule.Resource[*Metronome](c); ok {
			fields["beats"] = m.Beats
		}
		log.WithFields(fields).Info("status")

		if reg, ok := schedule.Resource[*status.Registry](c); ok {
			entry := log.WithField("stage", StageReport)
			for _, m := range reg.Snapshot() {
				entry = entry.WithField(m.Key, m.Value)
			}
			entry.Debug("metrics")
		}
	},
		schedule.Reads[component.Position](),
		schedule.ReadsResource[logrus.FieldLogger](),
		schedule.ReadsResource[*engine.Settings](),
		schedule.ReadsResource[*Metronome](),
		schedule.ReadsResource[*status.Registry](),
	)
}
