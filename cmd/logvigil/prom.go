// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import "github.com/prometheus/client_golang/prometheus"

func prometheusDefaultRegisterer() prometheus.Registerer { return prometheus.DefaultRegisterer }
func prometheusDefaultGatherer() prometheus.Gatherer     { return prometheus.DefaultGatherer }
