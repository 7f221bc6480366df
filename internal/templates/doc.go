// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package templates maps short names to a company and stock code for quick fill.
//
// Three templates are built in (茅台, 比亚迪, 宁德时代); more can be declared
// in the [[templates]] table of the config file.
package templates
