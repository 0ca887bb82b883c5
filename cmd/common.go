/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/valpere/deepltr/internal/config"
	"github.com/valpere/deepltr/internal/translator"
)

// buildService constructs the configured translation service.
func buildService(cfg *config.Config) (translator.TranslationService, error) {
	switch cfg.Service {
	case "deepl":
		return translator.NewDeepLService(cfg.AuthKey, cfg.BaseURL, cfg.Timeout), nil
	case "google":
		return translator.NewGoogleService(cfg.Credentials, cfg.ProjectID), nil
	default:
		return nil, fmt.Errorf("unknown service: %s", cfg.Service)
	}
}

// deeplService returns the DeepL client for commands that only make sense
// against DeepL.
func deeplService(cfg *config.Config) (*translator.DeepLService, error) {
	if cfg.AuthKey == "" {
		return nil, translator.ErrMissingAuthKey
	}
	return translator.NewDeepLService(cfg.AuthKey, cfg.BaseURL, cfg.Timeout), nil
}

func serviceConfig(cfg *config.Config) translator.ServiceConfig {
	return translator.ServiceConfig{
		Credentials: cfg.Credentials,
		AuthKey:     cfg.AuthKey,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		ProjectID:   cfg.ProjectID,
	}
}
