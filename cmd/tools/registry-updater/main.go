// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"study-assistant-workers/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = list(os.Args[2:])
	case "update":
		err = update(os.Args[2:])
	case "validate":
		err = validate(os.Args[2:])
	default:
		help()
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func list(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	fs.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	for _, a := range reg.Activities {
		fmt.Printf("%-24s %-12s %-10s timeout=%s retries=%d\n", a.TaskType, a.Category, a.ImplementationStatus, a.Timeout, a.Retries)
	}
	return nil
}

func update(args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	id := fs.String("id", "", "Activity ID to update")
	field := fs.String("field", "", "Field to update (status, version, timeout, retries, description)")
	value := fs.String("value", "", "New value for the field")
	fs.Parse(args)

	if *id == "" || *field == "" || *value == "" {
		fs.Usage()
		return fmt.Errorf("id, field and value are required")
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	var activity *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == *id {
			activity = &reg.Activities[i]
			break
		}
	}
	if activity == nil {
		return fmt.Errorf("activity with ID %s not found", *id)
	}

	switch *field {
	case "status":
		activity.ImplementationStatus = *value
	case "version":
		activity.Version = *value
	case "timeout":
		activity.Timeout = *value
	case "description":
		activity.Description = *value
	case "retries":
		retries, err := strconv.Atoi(*value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		activity.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", *field)
	}

	if err := reg.Validate(); err != nil {
		return fmt.Errorf("update leaves registry invalid: %w", err)
	}
	if err := reg.Save(*path); err != nil {
		return err
	}
	fmt.Printf("Updated activity %s, field %s to %s\n", *id, *field, *value)
	return nil
}

func validate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	fs.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  list     Print every registered activity
  update   Update an existing activity's field
  validate Validate the registry file
  help     Show this help message

Examples:
  registry-updater list
  registry-updater update -id normalize-response -field timeout -value 15s
  registry-updater validate -path configs/activity-registry.json`)
}
