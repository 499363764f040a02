// Package main provides a command that runs randomized workloads on the
// key-value cache engine and checks every operation against a software model.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/kvcam/busadapter"
	"github.com/sarchlab/kvcam/cachectrl"
	"github.com/sarchlab/kvcam/hostagent"
	"github.com/sarchlab/kvcam/kv"
	"github.com/sarchlab/kvcam/sim"
	"github.com/sarchlab/kvcam/sim/directconnection"
	"github.com/sarchlab/kvcam/simulation"
	"github.com/sarchlab/kvcam/tracing"
)

var rootCmd = &cobra.Command{
	Use:   "kvcam",
	Short: "Run a randomized workload on the key-value cache engine.",
	Long: `kvcam runs a randomized sequence of GET, UPSERT, and DELETE ` +
		`operations through the register interface of the key-value cache ` +
		`engine and verifies the outcome of every operation against a ` +
		`software model.`,
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.Int("num-slots", 16, "number of storage slots")
	flags.Int("key-width", 16, "key width in bits")
	flags.Int("value-width", 64, "value width in bits")
	flags.Int("num-ops", 1000, "number of operations to perform")
	flags.Int("max-polls", 20, "status polls allowed per operation")
	flags.Int64("seed", 0, "random seed, 0 uses the current time")
	flags.Bool("no-monitoring", false, "disable the monitoring server")
	flags.Int("monitor-port", 0, "port of the monitoring server")
	flags.String("output", "", "name of the output database file")
	flags.String("csv-trace", "", "write a task trace to the given CSV file")
	flags.Bool("db-trace", false, "record the task trace in the output database")
}

type opResultEntry struct {
	Index  int
	Opcode string
	Key    uint64
	Value  uint64
	Polls  int
	Hit    bool
	Error  bool
	Result uint64
}

func run(cmd *cobra.Command) {
	flags := cmd.Flags()

	numSlots, _ := flags.GetInt("num-slots")
	keyWidth, _ := flags.GetInt("key-width")
	valueWidth, _ := flags.GetInt("value-width")
	numOps, _ := flags.GetInt("num-ops")
	maxPolls, _ := flags.GetInt("max-polls")
	seed, _ := flags.GetInt64("seed")

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := buildSimulation(cmd)
	defer s.Terminate()

	engine := s.GetEngine()

	controller := cachectrl.MakeBuilder().
		WithEngine(engine).
		WithNumSlots(numSlots).
		WithKeyWidth(keyWidth).
		WithValueWidth(valueWidth).
		Build("Cache")

	adapter := busadapter.MakeBuilder().
		WithEngine(engine).
		WithController(controller.GetPortByName("Top").AsRemote()).
		WithKeyWidth(keyWidth).
		WithValueWidth(valueWidth).
		Build("Adapter")

	agent := hostagent.MakeBuilder().
		WithEngine(engine).
		WithAdapter(adapter.GetPortByName("Bus").AsRemote()).
		WithNumSlots(numSlots).
		WithMaxPolls(maxPolls).
		WithScript(randomScript(seed, numOps, numSlots, keyWidth)).
		Build("Host")

	conn := directconnection.MakeBuilder().
		WithEngine(engine).
		Build("Conn")
	conn.PlugIn(agent.GetPortByName("Bus"))
	conn.PlugIn(adapter.GetPortByName("Bus"))
	conn.PlugIn(adapter.GetPortByName("Bottom"))
	conn.PlugIn(controller.GetPortByName("Top"))

	s.RegisterComponent(controller)
	s.RegisterComponent(adapter)
	s.RegisterComponent(agent)

	attachTracers(cmd, s, controller, adapter)

	agent.TickLater()

	err := engine.Run()
	if err != nil {
		panic(err)
	}

	recordResults(s, agent)
	report(engine.CurrentCycle(), seed, agent)
}

func buildSimulation(cmd *cobra.Command) *simulation.Simulation {
	noMonitoring, _ := cmd.Flags().GetBool("no-monitoring")
	monitorPort, _ := cmd.Flags().GetInt("monitor-port")
	output, _ := cmd.Flags().GetString("output")

	builder := simulation.MakeBuilder()

	if noMonitoring {
		builder = builder.WithoutMonitoring()
	} else if monitorPort > 0 {
		builder = builder.WithMonitorPort(monitorPort)
	}

	if output != "" {
		builder = builder.WithOutputFileName(output)
	}

	return builder.Build()
}

// randomScript draws keys from a space a few times larger than the slot
// count so that hits, misses, and capacity rejections all occur.
func randomScript(
	seed int64,
	numOps, numSlots, keyWidth int,
) []hostagent.Op {
	r := rand.New(rand.NewSource(seed))

	keySpace := numSlots * 4
	script := make([]hostagent.Op, 0, numOps)

	for i := 0; i < numOps; i++ {
		script = append(script, hostagent.Op{
			Opcode: kv.Opcode(r.Intn(4)),
			Key:    kv.Key(r.Intn(keySpace)).Mask(keyWidth),
			Value:  kv.Value(r.Uint64()),
		})
	}

	return script
}

func attachTracers(
	cmd *cobra.Command,
	s *simulation.Simulation,
	controller *cachectrl.Comp,
	adapter *busadapter.Comp,
) {
	dbTrace, _ := cmd.Flags().GetBool("db-trace")
	csvTrace, _ := cmd.Flags().GetString("csv-trace")

	if dbTrace {
		tracing.CollectTrace(controller, s.GetVisTracer())
		tracing.CollectTrace(adapter, s.GetVisTracer())
	}

	if csvTrace != "" {
		tracer := tracing.NewCSVTracer(s.GetEngine(), csvTrace)
		tracing.CollectTrace(controller, tracer)
		tracing.CollectTrace(adapter, tracer)
	}
}

func recordResults(s *simulation.Simulation, agent *hostagent.Comp) {
	recorder := s.GetDataRecorder()
	recorder.CreateTable("op_results", opResultEntry{})

	for i, r := range agent.Results() {
		recorder.InsertData("op_results", opResultEntry{
			Index:  i,
			Opcode: r.Op.Opcode.String(),
			Key:    uint64(r.Op.Key),
			Value:  uint64(r.Op.Value),
			Polls:  r.Polls,
			Hit:    r.Hit,
			Error:  r.Error,
			Result: r.Result,
		})
	}

	recorder.Flush()
}

func report(cycles sim.VCycle, seed int64, agent *hostagent.Comp) {
	fmt.Printf("Seed:       %d\n", seed)
	fmt.Printf("Cycles:     %d\n", cycles)
	fmt.Printf("Operations: %d\n", len(agent.Results()))
	fmt.Printf("Mismatches: %d\n", len(agent.Failures()))

	for _, f := range agent.Failures() {
		fmt.Fprintf(os.Stderr, "mismatch: %s\n", f)
	}

	if len(agent.Failures()) > 0 {
		atexit.Exit(1)
	}
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
