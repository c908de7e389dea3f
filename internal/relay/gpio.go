package relay

import (
	"os/exec"
	"strconv"
	"strings"

	"github.com/rwchcd/rwchcd/internal/model"
)

// gpioSet drives one GPIO line via `pinctrl set`, folding the teacher's
// internal/pinctrl.SetPin into the relay package's own status convention
// instead of a bare error.
func gpioSet(pin int, opts ...string) model.Status {
	args := append([]string{"set", strconv.Itoa(pin)}, opts...)
	if _, err := exec.Command("pinctrl", args...).CombinedOutput(); err != nil {
		return model.Safety
	}
	return model.OK
}

// gpioLevel reads one GPIO line's logic level via `pinctrl lev`, folding
// the teacher's internal/pinctrl.ReadLevel the same way.
func gpioLevel(pin int) (bool, model.Status) {
	out, err := exec.Command("pinctrl", "lev", strconv.Itoa(pin)).Output()
	if err != nil {
		return false, model.Safety
	}
	switch strings.TrimSpace(string(out)) {
	case "1":
		return true, model.OK
	case "0":
		return false, model.OK
	default:
		return false, model.Safety
	}
}
