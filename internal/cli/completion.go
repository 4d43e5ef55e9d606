// Package cli provides shell completion script generation for various shells.
package cli

import (
	"fmt"
	"io"
)

// GenerateCompletion generates a shell completion script for the specified
// shell.
//
// Parameters:
//   - out: The writer to output the completion script.
//   - shell: The shell type ("bash", "zsh", "fish", "powershell").
//
// Returns:
//   - error: An error if the shell is not supported.
func GenerateCompletion(out io.Writer, shell string) error {
	switch shell {
	case "bash":
		return generateBashCompletion(out)
	case "zsh":
		return generateZshCompletion(out)
	case "fish":
		return generateFishCompletion(out)
	case "powershell", "ps":
		return generatePowerShellCompletion(out)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish, powershell)", shell)
	}
}

// generateBashCompletion generates a Bash completion script.
func generateBashCompletion(out io.Writer) error {
	script := `# Bash completion script for kpmcalc
# Add this to your ~/.bashrc or ~/.bash_completion

_kpmcalc_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    # Main options
    opts="--help -h --version -V --query --lattice --sites --width --hopping --onsite --flux --disorder --site --row --col --emin --emax --points --broadening --kernel --lambda --num-random --seed --parallel --min-energy --max-energy --lanczos-precision --format --no-reorder --skip-hermiticity-check --timeout --compare --calibrate --calibration-profile --preset --json --server --port --no-color --output -o --quiet -q -d --details --completion"

    case "${prev}" in
        --query)
            COMPREPLY=( $(compgen -W "ldos dos greens" -- "${cur}") )
            return 0
            ;;
        --lattice)
            COMPREPLY=( $(compgen -W "chain square flux disordered" -- "${cur}") )
            return 0
            ;;
        --kernel)
            COMPREPLY=( $(compgen -W "jackson lorentz" -- "${cur}") )
            return 0
            ;;
        --format)
            COMPREPLY=( $(compgen -W "csr ell auto" -- "${cur}") )
            return 0
            ;;
        --completion)
            COMPREPLY=( $(compgen -W "bash zsh fish powershell" -- "${cur}") )
            return 0
            ;;
        --output|-o|--calibration-profile|--preset)
            # File/directory completion
            COMPREPLY=( $(compgen -f -- "${cur}") )
            return 0
            ;;
        --port)
            COMPREPLY=( $(compgen -W "8080 3000 5000 9000" -- "${cur}") )
            return 0
            ;;
        --timeout)
            COMPREPLY=( $(compgen -W "1m 5m 10m 30m 1h" -- "${cur}") )
            return 0
            ;;
        --sites)
            COMPREPLY=( $(compgen -W "128 512 1024 4096 16384" -- "${cur}") )
            return 0
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _kpmcalc_completions kpmcalc
`
	_, err := fmt.Fprint(out, script)
	return err
}

// generateZshCompletion generates a Zsh completion script.
func generateZshCompletion(out io.Writer) error {
	script := `#compdef kpmcalc

# Zsh completion script for kpmcalc
# Add this to your ~/.zshrc or place in $fpath

_kpmcalc() {
    _arguments -s \
        '(-h --help)'{-h,--help}'[Show help message]' \
        '(-V --version)'{-V,--version}'[Show version information]' \
        '--query[Spectral quantity to compute]:query:(ldos dos greens)' \
        '--lattice[Model Hamiltonian]:lattice:(chain square flux disordered)' \
        '--sites[Number of lattice sites]:sites:(128 512 1024 4096 16384)' \
        '--width[Square lattice y extent]:width:' \
        '--site[Site index for LDOS queries]:site:' \
        '--row[Green'\''s function row index]:row:' \
        '--col[Green'\''s function column index]:col:' \
        '--broadening[Requested energy resolution]:broadening:' \
        '--kernel[Damping kernel]:kernel:(jackson lorentz)' \
        '--num-random[Random realizations for DOS]:count:(1 4 16 64)' \
        '--seed[Random seed]:seed:' \
        '--parallel[Run stochastic realizations concurrently]' \
        '--format[Sparse layout]:format:(csr ell auto)' \
        '--no-reorder[Disable light-cone reordering]' \
        '--timeout[Maximum execution time]:duration:(1m 5m 10m 30m 1h)' \
        '--compare[Cross-check all sparse layouts]' \
        '--calibrate[Run layout calibration]' \
        '--calibration-profile[Calibration profile file]:file:_files' \
        '--preset[YAML preset file]:file:_files' \
        '--json[Output in JSON format]' \
        '--server[Start HTTP server mode]' \
        '--port[Server port]:port:(8080 3000 5000 9000)' \
        '--no-color[Disable colored output]' \
        '(-o --output)'{-o,--output}'[Output file path]:file:_files' \
        '(-q --quiet)'{-q,--quiet}'[Quiet mode for scripts]' \
        '(-d --details)'{-d,--details}'[Show the verbose engine report]' \
        '--completion[Generate completion script]:shell:(bash zsh fish powershell)'
}

_kpmcalc "$@"
`
	_, err := fmt.Fprint(out, script)
	return err
}

// generateFishCompletion generates a Fish completion script.
func generateFishCompletion(out io.Writer) error {
	script := `# Fish completion script for kpmcalc
# Add this to ~/.config/fish/completions/kpmcalc.fish

# Disable file completion by default
complete -c kpmcalc -f

# Help and version
complete -c kpmcalc -s h -l help -d 'Show help message'
complete -c kpmcalc -s V -l version -d 'Show version information'

# Model and query
complete -c kpmcalc -l query -d 'Spectral quantity to compute' -xa 'ldos dos greens'
complete -c kpmcalc -l lattice -d 'Model Hamiltonian' -xa 'chain square flux disordered'
complete -c kpmcalc -l sites -d 'Number of lattice sites' -xa '128 512 1024 4096 16384'
complete -c kpmcalc -l site -d 'Site index for LDOS queries' -x
complete -c kpmcalc -l broadening -d 'Requested energy resolution' -x
complete -c kpmcalc -l kernel -d 'Damping kernel' -xa 'jackson lorentz'
complete -c kpmcalc -l num-random -d 'Random realizations for DOS' -xa '1 4 16 64'
complete -c kpmcalc -l parallel -d 'Run stochastic realizations concurrently'

# Engine tuning
complete -c kpmcalc -l format -d 'Sparse layout' -xa 'csr ell auto'
complete -c kpmcalc -l no-reorder -d 'Disable light-cone reordering'
complete -c kpmcalc -l timeout -d 'Maximum execution time' -xa '1m 5m 10m 30m 1h'

# Calibration
complete -c kpmcalc -l compare -d 'Cross-check all sparse layouts'
complete -c kpmcalc -l calibrate -d 'Run layout calibration'
complete -c kpmcalc -l calibration-profile -d 'Calibration profile file' -rF
complete -c kpmcalc -l preset -d 'YAML preset file' -rF

# Output options
complete -c kpmcalc -l json -d 'Output in JSON format'
complete -c kpmcalc -s o -l output -d 'Output file path' -rF
complete -c kpmcalc -s q -l quiet -d 'Quiet mode for scripts'
complete -c kpmcalc -s d -l details -d 'Show the verbose engine report'
complete -c kpmcalc -l no-color -d 'Disable colored output'

# Server mode
complete -c kpmcalc -l server -d 'Start HTTP server mode'
complete -c kpmcalc -l port -d 'Server port' -xa '8080 3000 5000 9000'

# Completion
complete -c kpmcalc -l completion -d 'Generate completion script' -xa 'bash zsh fish powershell'
`
	_, err := fmt.Fprint(out, script)
	return err
}

// generatePowerShellCompletion generates a PowerShell completion script.
func generatePowerShellCompletion(out io.Writer) error {
	script := `# PowerShell completion script for kpmcalc
# Add this to your $PROFILE

Register-ArgumentCompleter -CommandName 'kpmcalc' -Native -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $options = @(
        @{Name = '-h'; Description = 'Show help message' }
        @{Name = '--help'; Description = 'Show help message' }
        @{Name = '--query'; Description = 'Spectral quantity to compute' }
        @{Name = '--lattice'; Description = 'Model Hamiltonian' }
        @{Name = '--sites'; Description = 'Number of lattice sites' }
        @{Name = '--site'; Description = 'Site index for LDOS queries' }
        @{Name = '--row'; Description = 'Greens function row index' }
        @{Name = '--col'; Description = 'Greens function column index' }
        @{Name = '--broadening'; Description = 'Requested energy resolution' }
        @{Name = '--kernel'; Description = 'Damping kernel' }
        @{Name = '--num-random'; Description = 'Random realizations for DOS' }
        @{Name = '--parallel'; Description = 'Concurrent stochastic realizations' }
        @{Name = '--format'; Description = 'Sparse layout' }
        @{Name = '--no-reorder'; Description = 'Disable light-cone reordering' }
        @{Name = '--timeout'; Description = 'Maximum execution time' }
        @{Name = '--compare'; Description = 'Cross-check all sparse layouts' }
        @{Name = '--calibrate'; Description = 'Run layout calibration' }
        @{Name = '--calibration-profile'; Description = 'Calibration profile file' }
        @{Name = '--preset'; Description = 'YAML preset file' }
        @{Name = '--json'; Description = 'Output in JSON format' }
        @{Name = '--server'; Description = 'Start HTTP server mode' }
        @{Name = '--port'; Description = 'Server port' }
        @{Name = '--no-color'; Description = 'Disable colored output' }
        @{Name = '-o'; Description = 'Output file path' }
        @{Name = '--output'; Description = 'Output file path' }
        @{Name = '-q'; Description = 'Quiet mode for scripts' }
        @{Name = '--quiet'; Description = 'Quiet mode for scripts' }
        @{Name = '-d'; Description = 'Show the verbose engine report' }
        @{Name = '--details'; Description = 'Show the verbose engine report' }
        @{Name = '--completion'; Description = 'Generate completion script' }
    )

    $elements = $commandAst.CommandElements
    $prevElement = if ($elements.Count -gt 2) { $elements[-2].ToString() } else { '' }

    # Context-aware completions
    switch ($prevElement) {
        '--query' {
            @('ldos', 'dos', 'greens') | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
            }
            return
        }
        '--lattice' {
            @('chain', 'square', 'flux', 'disordered') | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
            }
            return
        }
        '--kernel' {
            @('jackson', 'lorentz') | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
            }
            return
        }
        '--format' {
            @('csr', 'ell', 'auto') | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
            }
            return
        }
        '--completion' {
            @('bash', 'zsh', 'fish', 'powershell') | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
            }
            return
        }
    }

    # Default: show options
    $options | Where-Object { $_.Name -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ParameterName', $_.Description)
    }
}
`
	_, err := fmt.Fprint(out, script)
	return err
}
