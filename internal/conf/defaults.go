// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "photometry-go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "photometry.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	// Z-score baseline, 25-35 minutes from recording start
	viper.SetDefault("photometry.baseline.start", 1500.0)
	viper.SetDefault("photometry.baseline.end", 2100.0)

	// Photobleaching trend windows
	viper.SetDefault("photometry.bleach.prestart", 100.0)
	viper.SetDefault("photometry.bleach.preend", 600.0)
	viper.SetDefault("photometry.bleach.poststartoffset", 500.0)
	viper.SetDefault("photometry.bleach.postendoffset", 0.0)

	viper.SetDefault("photometry.binsize", 1.0)

	// Plot window, 45 min to 6 h 45 min
	viper.SetDefault("photometry.plot.lower", 2700.0)
	viper.SetDefault("photometry.plot.upper", 24300.0)

	viper.SetDefault("photometry.minsamples", 10)
	viper.SetDefault("photometry.threads", 0)

	viper.SetDefault("input.control", "control/")
	viper.SetDefault("input.test", "test/")

	viper.SetDefault("output.file.enabled", true)
	viper.SetDefault("output.file.path", "output/")

	viper.SetDefault("output.sqlite.enabled", false)
	viper.SetDefault("output.sqlite.path", "photometry.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "photometry")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "photometry")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", 3306)
}
