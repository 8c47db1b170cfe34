package instance_test

import (
	"context"
	"fmt"
	"log"

	"github.com/toolfleet/toolfleet/fault"
	"github.com/toolfleet/toolfleet/instance"
)

func ExampleRegistry_Execute() {
	reg, err := instance.NewRegistry(instance.Config{
		Failover: instance.FailoverConfig{BackupInstances: []string{"backup"}},
	})
	if err != nil {
		log.Fatal(err)
	}
	defer reg.Close()

	reg.Add(instance.EndpointConfig{Name: "primary", URL: "http://primary:9000"})
	reg.Add(instance.EndpointConfig{Name: "backup", URL: "http://backup:9000"})

	result, err := reg.Execute(context.Background(), func(ctx context.Context, inst *instance.Instance) (any, error) {
		if inst.Name() == "primary" {
			return nil, fault.Validation("primary is down for maintenance")
		}
		return "served by " + inst.Name(), nil
	}, instance.ExecuteOptions{Instance: "primary"})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(result)
	// Output: served by backup
}

func ExampleRegistry_Select() {
	reg, err := instance.NewRegistry(instance.Config{})
	if err != nil {
		log.Fatal(err)
	}
	defer reg.Close()

	reg.Add(instance.EndpointConfig{Name: "a"})
	reg.Add(instance.EndpointConfig{Name: "b"})

	for i := 0; i < 4; i++ {
		inst, _ := reg.Select()
		fmt.Println(inst.Name())
	}
	// Output:
	// a
	// b
	// a
	// b
}
