package system

import (
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// RaiseFileLimit lifts the soft open-file limit to want (capped at the hard
// limit). Parallel decoding keeps one handle per worker open.
func RaiseFileLimit(want uint64) {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Could not read open file limit: %v", err)
		return
	}
	if rLimit.Cur >= want {
		return
	}

	rLimit.Cur = want
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Could not raise open file limit: %v", err)
	} else {
		fmt.Printf("[*] Open file limit raised to %d\n", rLimit.Cur)
	}
}

// Snapshot is the resource usage of this process and the host at one moment
type Snapshot struct {
	RSSBytes        uint64
	HostTotalBytes  uint64
	HostUsedBytes   uint64
	HostUsedPercent float64
}

// TakeSnapshot reads memory usage. Fields that cannot be read stay zero.
func TakeSnapshot() (Snapshot, error) {
	var snap Snapshot
	var errs []error

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		var info *process.MemoryInfoStat
		info, err = proc.MemoryInfo()
		if err == nil {
			snap.RSSBytes = info.RSS
		}
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("process memory: %w", err))
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		errs = append(errs, fmt.Errorf("host memory: %w", err))
	} else {
		snap.HostTotalBytes = vm.Total
		snap.HostUsedBytes = vm.Used
		snap.HostUsedPercent = vm.UsedPercent
	}

	if len(errs) > 0 {
		return snap, errs[0]
	}
	return snap, nil
}

func mib(b uint64) float64 {
	return float64(b) / (1 << 20)
}
