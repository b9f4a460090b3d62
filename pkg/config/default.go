package config

// DefaultTarget is the contract test suite the built-in change rewrites
const DefaultTarget = "contract/contracts/predifi-contract/src/test.rs"

const (
	setupReturnType = `) -> (
    dummy_access_control::DummyAccessControlClient<'_>,
    PredifiContractClient<'_>,
    Address,
    token::Client<'_>,
    token::StellarAssetClient<'_>,
    Address,
    Address,
) {`

	setupReturnValue = `    (
        ac_client,
        client,
        token_address,
        token,
        token_admin_client,
        treasury,
        operator,
    )`

	cidMetadataClose    = "            \"ipfs://bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi\",\n        ),"
	plainMetadataClose  = "            \"ipfs://metadata\",\n        ),"
	createPoolFirstArg  = "\n        &100000u64,"
	createPoolCreator   = "\n        &creator,"
	createPoolLiquidity = "\n        &0i128,"
)

// Default returns the built-in change: a pool creator is threaded through
// setup() and every create_pool call gains a creator and an initial
// liquidity argument.
func Default() *Config {
	return &Config{
		Target: DefaultTarget,
		Change: Change{
			Declaration: &Declaration{
				After:  "    let operator = Address::generate(env);\n",
				Before: "\n    ac_client.grant_role",
				Line:   "    let creator = Address::generate(env);\n",
			},
			ReturnType: &TupleField{
				Block: setupReturnType,
				Field: "    Address,\n",
				Close: ") {",
			},
			ReturnValue: &TupleField{
				Block: setupReturnValue,
				Field: "        creator,\n",
				Close: "    )",
			},
			Bindings: &Bindings{
				Name: "creator",
				Call: "setup(&env);",
				Patterns: []Binding{
					{Old: "let (_, client, token_address, token, token_admin_client, _, operator)"},
					{Old: "let (_, client, token_address, _, token_admin_client, _, operator)"},
					{Old: "let (_, client, token_address, _, token_admin_client, _, _)"},
					{Old: "let (_, client, token_address, _, _, _, _)"},
					{Old: "let (_, client, _, _, _, _, _)"},
				},
			},
			Calls: []CallInjection{
				{
					Name:    "create_pool",
					Call:    "client.create_pool",
					Binding: "let pool_id = ",
					Leading: &Leading{
						Marker:   createPoolFirstArg,
						Argument: createPoolCreator,
					},
					Trailing: &Trailing{
						Markers:  []string{cidMetadataClose, plainMetadataClose},
						Argument: createPoolLiquidity,
					},
				},
			},
		},
	}
}
