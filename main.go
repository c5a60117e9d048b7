package main

import (
	"os"
	"runtime/pprof"

	"github.com/loopworks/frameclock/cmd"
	"github.com/loopworks/frameclock/pkg/log"
)

func main() {
	log.Setup()

	if os.Getenv("FRAMECLOCK_PPROF") == "true" {
		cpuFile, err := os.Create("frameclock-cpu.pprof")
		if err != nil {
			log.Error("can't create frameclock-cpu.pprof", "error", err)
		}
		defer pprof.StopCPUProfile()
		_ = pprof.StartCPUProfile(cpuFile)
	}

	cmd.Execute()

	if os.Getenv("FRAMECLOCK_PPROF") == "true" {
		memFile, err := os.Create("frameclock-memory.pprof")
		if err != nil {
			log.Error("can't create frameclock-memory.pprof", "error", err)
		}
		_ = pprof.WriteHeapProfile(memFile)
		defer memFile.Close()
	}
}
