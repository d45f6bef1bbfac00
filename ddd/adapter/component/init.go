package component

import "f2v2f-service/pkg/manager"

func init() {
	manager.RegisterComponentPlugin(&JobRequestConsumerPlugin{})
	manager.RegisterComponentPlugin(&RetentionSweeperPlugin{})
	manager.RegisterComponentPlugin(&ServiceRegistryPlugin{})
}
