package intgen

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

type SnowflakeOptions struct {
	// MachineID 为空时取本机 IPv4 地址的低 10 位
	MachineID *int64 `cfg:"machineId"`
}

// SnowflakeGenerator 1 位符号 + 41 位毫秒时间戳 + 10 位机器 ID + 12 位序列号
type SnowflakeGenerator struct {
	state     int64 // 高位时间戳，低 12 位序列号
	machineID int64
}

const (
	sequenceBits  = 12
	machineIDBits = 10

	maxSequence  = (1 << sequenceBits) - 1
	maxMachineID = (1 << machineIDBits) - 1

	machineIDShift = sequenceBits
	timestampShift = sequenceBits + machineIDBits
)

// epoch 2020-01-01 00:00:00 UTC
var epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

func NewSnowflakeGeneratorWithOptions(options *SnowflakeOptions) (*SnowflakeGenerator, error) {
	machineID := machineIDFromIP()
	if options != nil && options.MachineID != nil {
		machineID = *options.MachineID
		if machineID < 0 || machineID > maxMachineID {
			return nil, errors.Errorf("machine id %d out of range [0, %d]", machineID, maxMachineID)
		}
	}

	return &SnowflakeGenerator{
		state:     (time.Now().UnixMilli() - epoch) << sequenceBits,
		machineID: machineID,
	}, nil
}

func machineIDFromIP() int64 {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return 0
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipv4 := ipnet.IP.To4(); ipv4 != nil {
				return (int64(ipv4[2])<<8 | int64(ipv4[3])) & maxMachineID
			}
		}
	}
	return 0
}

// Generate 并发安全，同一毫秒内序列号用尽时等待下一毫秒
func (g *SnowflakeGenerator) Generate() int64 {
	for {
		old := atomic.LoadInt64(&g.state)
		lastTimestamp := old >> sequenceBits
		sequence := old & maxSequence

		timestamp := time.Now().UnixMilli() - epoch
		if timestamp <= lastTimestamp {
			timestamp = lastTimestamp
			sequence = (sequence + 1) & maxSequence
			if sequence == 0 {
				for timestamp <= lastTimestamp {
					timestamp = time.Now().UnixMilli() - epoch
				}
			}
		} else {
			sequence = 0
		}

		if atomic.CompareAndSwapInt64(&g.state, old, timestamp<<sequenceBits|sequence) {
			return timestamp<<timestampShift | g.machineID<<machineIDShift | sequence
		}
	}
}

// Decompose 拆分 ID 为生成时间、机器 ID 和序列号
func Decompose(id int64) (time.Time, int64, int64) {
	return time.UnixMilli((id >> timestampShift) + epoch), (id >> machineIDShift) & maxMachineID, id & maxSequence
}
