// Package startup generates the server start script and the Java runtime
// requirement for a given game version.
package startup

import (
	"fmt"
	"strings"
)

// javaVersionMap maps a game version prefix to the Java major release it
// needs. Both "major.minor" and "major.minor.patch" keys are consulted, the
// longer one first.
var javaVersionMap = map[string]int{
	"1.17":   16,
	"1.18":   17,
	"1.19":   17,
	"1.20":   17,
	"1.20.5": 21,
	"1.21":   21,
}

// defaultJavaVersion covers versions the map does not know, including
// everything newer than the last mapped release.
const defaultJavaVersion = 21

// JavaRequirement returns the Java major release required to run the given
// game version.
func JavaRequirement(gameVersion string) int {
	parts := strings.Split(gameVersion, ".")
	if len(parts) < 2 {
		return defaultJavaVersion
	}

	patch := "0"
	if len(parts) > 2 {
		patch = parts[2]
	}
	full := parts[0] + "." + parts[1] + "." + patch
	major := parts[0] + "." + parts[1]

	if v, ok := javaVersionMap[full]; ok {
		return v
	}
	if v, ok := javaVersionMap[major]; ok {
		return v
	}
	return defaultJavaVersion
}

// ScriptOptions control start-script generation
type ScriptOptions struct {
	GameVersion string
	RAMMb       int
	AikarFlags  bool
	JarName     string
}

// highMemThresholdMb is where Aikar's tuning switches to the large-heap
// parameter set.
const highMemThresholdMb = 12288

// AikarFlags renders the java invocation with Aikar's GC tuning. Heaps over
// 12288 MB get the large-heap parameter set; Java releases before 16 cannot
// load the vector incubator module, so that flag is dropped for them.
func AikarFlags(ramMb, javaVersion int, jarName string) string {
	if jarName == "" {
		jarName = "server.jar"
	}
	ramStr := fmt.Sprintf("%dM", ramMb)

	highMem := ramMb > highMemThresholdMb
	survivorRatio := 8
	regionSize := "8M"
	reservePercent := 15
	initiatingOccupancy := 15
	if highMem {
		survivorRatio = 32
		regionSize = "16M"
		reservePercent = 20
		initiatingOccupancy = 20
	}

	flags := []string{
		fmt.Sprintf("java -Xms%s -Xmx%s", ramStr, ramStr),
		"--add-modules=jdk.incubator.vector",
		"-XX:+UseG1GC",
		"-XX:+ParallelRefProcEnabled",
		"-XX:MaxGCPauseMillis=200",
		"-XX:+UnlockExperimentalVMOptions",
		"-XX:+DisableExplicitGC",
		"-XX:+AlwaysPreTouch",
		"-XX:G1NewSizePercent=30",
		"-XX:G1MaxNewSizePercent=40",
		"-XX:G1HeapRegionSize=" + regionSize,
		fmt.Sprintf("-XX:G1ReservePercent=%d", reservePercent),
		"-XX:G1HeapWastePercent=5",
		"-XX:G1MixedGCCountTarget=4",
		fmt.Sprintf("-XX:InitiatingHeapOccupancyPercent=%d", initiatingOccupancy),
		"-XX:G1MixedGCLiveThresholdPercent=90",
		"-XX:G1RSetUpdatingPauseTimePercent=5",
		fmt.Sprintf("-XX:SurvivorRatio=%d", survivorRatio),
		"-XX:+PerfDisableSharedMem",
		"-XX:MaxTenuringThreshold=1",
		"-Dusing.aikars.flags=https://mcflags.emc.gs",
		"-Daikars.new.flags=true",
		fmt.Sprintf("-jar %s nogui", jarName),
	}

	if javaVersion < 16 {
		kept := flags[:0]
		for _, f := range flags {
			if !strings.HasPrefix(f, "--add-modules") {
				kept = append(kept, f)
			}
		}
		flags = kept
	}

	return strings.Join(flags, " \\\n  ")
}

// Script renders the full start.sh contents for the given options.
func Script(opts ScriptOptions) string {
	jarName := opts.JarName
	if jarName == "" {
		jarName = "server.jar"
	}
	if opts.GameVersion == "" {
		return fmt.Sprintf("#!/bin/bash\njava -jar %s nogui", jarName)
	}

	if opts.AikarFlags {
		javaVersion := JavaRequirement(opts.GameVersion)
		return "#!/bin/bash\n" + AikarFlags(opts.RAMMb, javaVersion, jarName)
	}

	ramStr := fmt.Sprintf("%dM", opts.RAMMb)
	return fmt.Sprintf("#!/bin/bash\njava -Xms%s -Xmx%s -jar %s nogui", ramStr, ramStr, jarName)
}
