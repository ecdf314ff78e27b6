package indexer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"puzzleScope/internal/contracts"
	"puzzleScope/internal/model"
)

// ParseEventTypes resolves activity type names into the events to archive. An
// empty input selects every tracked event.
func ParseEventTypes(inputs []string) ([]contracts.EventSpec, error) {
	var selected []contracts.EventSpec
	seen := make(map[model.ActivityType]struct{})
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		activityType, err := model.ParseActivityType(strings.ToLower(input))
		if err != nil {
			return nil, err
		}
		if _, ok := seen[activityType]; ok {
			continue
		}
		seen[activityType] = struct{}{}
		spec, ok := contracts.EventByType(activityType)
		if !ok {
			return nil, fmt.Errorf("no event for type %s", activityType)
		}
		selected = append(selected, spec)
	}
	if len(selected) == 0 {
		return contracts.Events(), nil
	}
	return selected, nil
}

// filterTargets groups selected events by contract address.
func filterTargets(addresses contracts.Addresses, events []contracts.EventSpec) ([]common.Address, []common.Hash, map[common.Address]contracts.Name, error) {
	var (
		addrs  []common.Address
		topics []common.Hash
	)
	names := make(map[common.Address]contracts.Name)
	for _, spec := range events {
		address, err := addresses.Of(spec.Contract)
		if err != nil {
			return nil, nil, nil, err
		}
		if _, ok := names[address]; !ok {
			names[address] = spec.Contract
			addrs = append(addrs, address)
		}
		topics = append(topics, spec.Topic)
	}
	return addrs, topics, names, nil
}
