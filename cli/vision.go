package cli

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/frcrobotics/autonomy/vision"
)

// ListenAction is the corresponding Action for 'vision listen'.
func ListenAction(c *cli.Context) error {
	codec, err := vision.CodecByName(c.String(visionFlagCodec))
	if err != nil {
		return err
	}
	interval := c.Duration(visionFlagInterval)
	if interval <= 0 {
		return errors.Errorf("--%s must be positive", visionFlagInterval)
	}

	receiver, err := vision.NewReceiver(c.String(visionFlagAddress), codec, vision.NewBearingStore(nil), newLogger(c))
	if err != nil {
		return err
	}
	defer func() {
		if err := receiver.Close(); err != nil {
			warningf(c.App.ErrWriter, "error closing receiver: %v", err)
		}
	}()
	printf(c.App.Writer, "listening on %s (%s)", receiver.Addr(), codec.Name())

	ctx := c.Context
	if d := c.Duration(visionFlagFor); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			printSnapshot(c, receiver)
			return nil
		case <-ticker.C:
			printSnapshot(c, receiver)
		}
	}
}

func printSnapshot(c *cli.Context, receiver *vision.Receiver) {
	snap := receiver.Store().Snapshot()
	stats := receiver.Stats()
	printf(c.App.Writer, "received %d, dropped %d, last id %d", stats.Received, stats.Dropped, snap.LastID)
	for _, b := range snap.Bearings {
		printf(c.App.Writer, "\t%s: %.1f deg (id %d, %s old)", b.Object, b.Angle, b.ID, b.Age.Round(time.Millisecond))
	}
}

// SendAction is the corresponding Action for 'vision send'.
func SendAction(c *cli.Context) error {
	codec, err := vision.CodecByName(c.String(visionFlagCodec))
	if err != nil {
		return err
	}
	p := vision.Packet{
		Sender: c.String(visionFlagSender),
		Object: c.String(visionFlagObject),
		Angle:  c.Float64(visionFlagAngle),
		ID:     c.Int64(visionFlagID),
	}
	if err := p.Validate(); err != nil {
		return err
	}

	sender, err := vision.Dial(c.String(visionFlagAddress), codec)
	if err != nil {
		return err
	}
	if err := sender.Send(p); err != nil {
		return errors.Wrap(err, "could not send packet")
	}
	if err := sender.Close(); err != nil {
		return err
	}
	printf(c.App.Writer, "sent %s packet %d to %s", codec.Name(), p.ID, c.String(visionFlagAddress))
	return nil
}
